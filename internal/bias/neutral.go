package bias

import (
	"strings"

	"github.com/ppiankov/perspecta/internal/model"
)

// neutralSynonyms are labels renamed to the neutral label when it is missing
var neutralSynonyms = map[string]bool{
	"neutral":   true,
	"center":    true,
	"centre":    true,
	"balanced":  true,
	"objective": true,
	"impartial": true,
	"unbiased":  true,
}

// EnsureNeutral returns cat with exactly one bucket labelled
// model.NeutralLabel. A missing neutral bucket is taken from the first
// synonym label, which then moves to the end of the order, or appended
// empty. Case variants of the neutral label are merged into it.
func EnsureNeutral(cat model.Categorization) model.Categorization {
	buckets := make([]model.PerspectiveBucket, len(cat.Buckets))
	copy(buckets, cat.Buckets)

	if !hasLabel(buckets, model.NeutralLabel) {
		idx := -1
		for i, b := range buckets {
			if neutralSynonyms[strings.ToLower(strings.TrimSpace(b.Label))] {
				idx = i
				break
			}
		}
		if idx >= 0 {
			renamed := buckets[idx]
			renamed.Label = model.NeutralLabel
			buckets = append(buckets[:idx:idx], buckets[idx+1:]...)
			buckets = append(buckets, renamed)
		} else {
			buckets = append(buckets, model.PerspectiveBucket{Label: model.NeutralLabel, Sources: []string{}})
		}
	}

	cat.Buckets = mergeNeutralVariants(buckets)
	return cat
}

func hasLabel(buckets []model.PerspectiveBucket, label string) bool {
	for _, b := range buckets {
		if b.Label == label {
			return true
		}
	}
	return false
}

// mergeNeutralVariants folds every bucket whose label equals the neutral
// label case-insensitively into the canonical one
func mergeNeutralVariants(buckets []model.PerspectiveBucket) []model.PerspectiveBucket {
	canonical := -1
	for i, b := range buckets {
		if b.Label == model.NeutralLabel {
			canonical = i
			break
		}
	}

	out := make([]model.PerspectiveBucket, 0, len(buckets))
	var extra []model.PerspectiveBucket
	for i, b := range buckets {
		if i != canonical && strings.EqualFold(strings.TrimSpace(b.Label), model.NeutralLabel) {
			extra = append(extra, b)
			continue
		}
		out = append(out, b)
	}
	if len(extra) == 0 {
		return out
	}

	for i := range out {
		if out[i].Label != model.NeutralLabel {
			continue
		}
		for _, b := range extra {
			out[i].Sources = appendMissing(append([]string(nil), out[i].Sources...), b.Sources)
			if out[i].Description == "" {
				out[i].Description = b.Description
			}
		}
	}
	return out
}

func appendMissing(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}
