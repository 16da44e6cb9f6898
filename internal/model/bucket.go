package model

// NeutralLabel is the reserved label of the one unbiased perspective bucket
const NeutralLabel = "unbiased"

// PerspectiveBucket groups outlets sharing an editorial stance
type PerspectiveBucket struct {
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Sources     []string `json:"sources"`
}

// Contains reports whether source is assigned to the bucket
func (b PerspectiveBucket) Contains(source string) bool {
	for _, s := range b.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// Categorization is the result of perspective discovery
type Categorization struct {
	Buckets   []PerspectiveBucket `json:"buckets"`
	Reasoning string              `json:"reasoning"`
	Parsed    bool                `json:"parsed"` // False when the fallback categorization was used
}

// Bucket returns the bucket with the given label
func (c Categorization) Bucket(label string) (PerspectiveBucket, bool) {
	for _, b := range c.Buckets {
		if b.Label == label {
			return b, true
		}
	}
	return PerspectiveBucket{}, false
}

// BucketRanking is the title-only ranking of one bucket's documents
type BucketRanking struct {
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Assigned    int              `json:"assigned"` // Documents assigned before ranking
	Documents   []ScoredDocument `json:"documents"`
	Error       string           `json:"error,omitempty"`
}
