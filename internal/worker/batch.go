package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/perspectai/perspectai/internal/model"
)

// Verifier defines the interface for verifying a single claim
type Verifier interface {
	ProcessRequest(ctx context.Context, req model.QueryRequest) (*model.QueryResponse, error)
}

// upstreamKey is the shared limiter key for batch jobs: every claim
// hits the same search and LLM vendors, so they are paced as one.
const upstreamKey = "upstream"

// VerifyJob represents a single claim verification job
type VerifyJob struct {
	Query    string
	Verifier Verifier
	Limiter  *Limiter
}

// Execute runs the verification
func (j *VerifyJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, upstreamKey); err != nil {
			return &VerifyResult{Query: j.Query, Error: err}
		}
	}

	resp, err := j.Verifier.ProcessRequest(ctx, model.QueryRequest{
		Query:       j.Query,
		UseVectorDB: true,
	})
	return &VerifyResult{
		Query:    j.Query,
		Response: resp,
		Error:    err,
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Query    string
	Response *model.QueryResponse
	Error    error
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple claims concurrently, pacing the
// shared upstream vendors with a rate limiter.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. requestsPerSecond
// caps the rate of claim verifications across all workers.
func NewBatchProcessor(verifier Verifier, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// ProcessClaims verifies multiple claims concurrently
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*VerifyResult {
	if len(claims) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, claim := range claims {
		pool.Submit(&VerifyJob{
			Query:    claim,
			Verifier: b.verifier,
			Limiter:  b.limiter,
		})
	}

	results := pool.Wait()

	verifyResults := make([]*VerifyResult, len(results))
	for i, result := range results {
		verifyResults[i] = result.(*VerifyResult)
	}

	return verifyResults
}

// ProcessFile reads claims from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file (one per line), skipping
// blanks, comments and duplicates.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
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
