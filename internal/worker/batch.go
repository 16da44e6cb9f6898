package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/perspecta/internal/model"
)

// Checker runs the full pipeline for one claim
type Checker interface {
	Check(ctx context.Context, claim string) (*model.Outcome, error)
}

// CheckJob represents one claim to check
type CheckJob struct {
	Claim   string
	Checker Checker
	Limiter *Limiter
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	if err := j.Limiter.WaitKey(ctx, "batch"); err != nil {
		return &CheckResult{Claim: j.Claim, Error: err}
	}

	outcome, err := j.Checker.Check(ctx, j.Claim)
	if err != nil {
		return &CheckResult{Claim: j.Claim, Error: err}
	}
	return &CheckResult{Claim: j.Claim, Outcome: outcome}
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Claim   string
	Outcome *model.Outcome
	Error   error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor. A positive requestsPerSecond
// throttles how fast claims enter the pipeline.
func NewBatchProcessor(checker Checker, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessClaims checks claims concurrently and returns results in input order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*CheckResult {
	if len(claims) == 0 {
		return []*CheckResult{}
	}

	jobs := make([]Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &CheckJob{Claim: claim, Checker: b.checker, Limiter: b.limiter}
	}

	results := RunOrdered(ctx, b.concurrency, jobs)

	out := make([]*CheckResult, len(claims))
	for i, r := range results {
		cr, ok := r.(*CheckResult)
		if !ok || cr == nil {
			cr = &CheckResult{Claim: claims[i], Error: fmt.Errorf("not processed: %w", context.Cause(ctx))}
		}
		out[i] = cr
	}
	return out
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims one per line, skipping blanks, # comments and duplicates
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
