package synth

import (
	"fmt"
	"strings"

	"github.com/ppiankov/perspecta/internal/model"
)

const (
	maxDigestArticles = model.DefaultDigestArticles
	minPerBucket      = 5
	maxPerBucket      = 10

	noContent = "No content available. Using title only."
)

// Allocate returns how many documents each of nonEmpty buckets contributes
// to the digest: min(10, max(5, 30/nonEmpty))
func Allocate(nonEmpty int) int {
	return allocate(nonEmpty, maxDigestArticles)
}

func allocate(nonEmpty, budget int) int {
	if nonEmpty <= 0 {
		return 0
	}
	if budget <= 0 {
		budget = maxDigestArticles
	}
	return min(maxPerBucket, max(minPerBucket, budget/nonEmpty))
}

// NonEmpty counts rankings with at least one document
func NonEmpty(rankings []model.BucketRanking) int {
	n := 0
	for _, r := range rankings {
		if len(r.Documents) > 0 {
			n++
		}
	}
	return n
}

// BuildDigest renders the bucket-labelled article listing with at most
// perBucket articles per bucket. Articles are numbered globally from 1.
// Content comes from the document with the same URL in docs when there is one.
func BuildDigest(rankings []model.BucketRanking, docs []model.Document, perBucket int) string {
	byURL := make(map[string]model.Document, len(docs))
	for _, d := range docs {
		if _, ok := byURL[d.URL]; !ok {
			byURL[d.URL] = d
		}
	}

	var b strings.Builder
	n := 1
	for _, r := range rankings {
		if len(r.Documents) == 0 {
			continue
		}
		label := strings.ToUpper(r.Label)
		fmt.Fprintf(&b, "\n===== ARTICLES FROM %s CATEGORY =====\n\n", label)

		for _, sd := range r.Documents[:min(perBucket, len(r.Documents))] {
			d, ok := byURL[sd.URL]
			if !ok {
				d = sd.Document
			}
			content := strings.TrimSpace(d.Body)
			if content == "" {
				content = noContent
			}
			fmt.Fprintf(&b, "ARTICLE %d (%s):\nTitle: %s\nSource: %s\nURL: %s\nDate: %s\nContent: %s\n\n",
				n, label, d.Title, d.Source, d.URL, d.PublishedAt, content)
			n++
		}
	}
	return b.String()
}
