package model

import "time"

// Status is the terminal state of a check
type Status string

const (
	StatusSuccess   Status = "success"
	StatusRejected  Status = "rejected"
	StatusNoResults Status = "no_results"
	StatusError     Status = "error"
)

// User-facing messages of the HTTP envelopes
const (
	MessageEmptyQuery  = "Please provide a news statement to verify."
	MessageRejected    = "I cannot provide information on this topic as it appears to contain sensitive or inappropriate content."
	MessageNoResults   = "No articles found on this topic."
	DetailsNoResults   = "No reliable sources could be found covering this information."
	MessageNoSummary   = "No articles available for summarization."
	MessageRankFailure = "Failed to rank articles for this query."
)

// Outcome is the full result of checking one claim
type Outcome struct {
	Claim     string           `json:"claim"`
	Status    Status           `json:"status"`
	Message   string           `json:"message,omitempty"`
	Details   string           `json:"details,omitempty"`
	Summary   string           `json:"summary,omitempty"`
	Queries   []Query          `json:"queries,omitempty"`
	Retrieved int              `json:"retrieved"` // Documents after dedup and filtering
	Ranked    []ScoredDocument `json:"ranked,omitempty"`
	Buckets   []BucketRanking  `json:"buckets,omitempty"`
	Reasoning string           `json:"reasoning,omitempty"`
	Fallbacks []string         `json:"fallbacks,omitempty"` // Components that degraded
	Stages    []StageTiming    `json:"stages,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}

// StageTiming records how long one pipeline stage took
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}
