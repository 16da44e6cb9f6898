// Package report renders check outcomes as JSON, Markdown and HTML.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/perspecta/internal/model"
)

// Article is the display form of a ranked document
type Article struct {
	Rank            int     `json:"rank"`
	Title           string  `json:"title"`
	Source          string  `json:"source"`
	SimilarityScore float64 `json:"similarity_score"`
	URL             string  `json:"url"`
	PublishedAt     string  `json:"published_at"`
}

// Bucket is one perspective with its selected articles
type Bucket struct {
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Assigned    int       `json:"assigned"`
	Articles    []Article `json:"articles"`
	Error       string    `json:"error,omitempty"`
}

// Stage is one stage timing in milliseconds
type Stage struct {
	Stage  string  `json:"stage"`
	Millis float64 `json:"ms"`
}

// Report is the serialized view of an outcome
type Report struct {
	Claim     string    `json:"claim"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Details   string    `json:"details,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Queries   []string  `json:"queries,omitempty"`
	Retrieved int       `json:"retrieved"`
	Articles  []Article `json:"articles"`
	Buckets   []Bucket  `json:"buckets,omitempty"`
	Reasoning string    `json:"reasoning,omitempty"`
	Fallbacks []string  `json:"fallbacks,omitempty"`
	Stages    []Stage   `json:"stages,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// FromOutcome builds the report view of o
func FromOutcome(o *model.Outcome) *Report {
	r := &Report{
		Claim:     o.Claim,
		Status:    string(o.Status),
		Message:   o.Message,
		Details:   o.Details,
		Summary:   o.Summary,
		Retrieved: o.Retrieved,
		Articles:  articles(o.Ranked),
		Reasoning: o.Reasoning,
		Fallbacks: o.Fallbacks,
		CheckedAt: o.CheckedAt,
	}
	for _, q := range o.Queries {
		r.Queries = append(r.Queries, q.Encode())
	}
	for _, b := range o.Buckets {
		r.Buckets = append(r.Buckets, Bucket{
			Label:       b.Label,
			Description: b.Description,
			Assigned:    b.Assigned,
			Articles:    articles(b.Documents),
			Error:       b.Error,
		})
	}
	for _, s := range o.Stages {
		r.Stages = append(r.Stages, Stage{Stage: s.Stage, Millis: float64(s.Duration.Microseconds()) / 1000})
	}
	return r
}

func articles(docs []model.ScoredDocument) []Article {
	out := make([]Article, len(docs))
	for i, d := range docs {
		out[i] = Article{
			Rank:            d.Rank,
			Title:           d.Title,
			Source:          d.Source,
			SimilarityScore: round4(d.Similarity),
			URL:             d.URL,
			PublishedAt:     d.PublishedAt,
		}
	}
	return out
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// JSON returns the indented JSON encoding of r
func JSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes r as JSON to path
func WriteJSON(r *Report, path string) error {
	data, err := JSON(r)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteMarkdown writes r as Markdown to path
func WriteMarkdown(r *Report, path string) error {
	return writeFile(path, []byte(Markdown(r)))
}

// WriteHTML writes r as a standalone HTML page to path
func WriteHTML(r *Report, path string) error {
	page, err := HTML(r)
	if err != nil {
		return err
	}
	return writeFile(path, page)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
