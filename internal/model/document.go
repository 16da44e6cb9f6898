package model

// Document is a single retrieved news item. URL is its identity for dedup.
type Document struct {
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"` // Snippet or extracted text
	URL         string `json:"url"`
	Source      string `json:"source"`                 // Outlet name (e.g., "reuters.com")
	PublishedAt string `json:"published_at,omitempty"` // Display form, e.g. "Aug 29, 2025 17:30"
	Origin      string `json:"origin,omitempty"`       // Backend that produced it (gdelt, google_search, elasticsearch)
}

// Text returns the text used for the global relevance pass
func (d Document) Text() string {
	if d.Body == "" {
		return d.Title + " "
	}
	return d.Title + " " + d.Body
}

// ScoredDocument is a Document with its similarity to the claim and its rank
type ScoredDocument struct {
	Document
	Similarity float64 `json:"similarity_score"` // Cosine similarity in [-1, 1]
	Rank       int     `json:"rank"`             // Dense, 1-based, assigned after filtering
}

// Sources returns the distinct source names of docs in first-appearance order
func Sources(docs []ScoredDocument) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range docs {
		if d.Source == "" || seen[d.Source] {
			continue
		}
		seen[d.Source] = true
		out = append(out, d.Source)
	}
	return out
}
