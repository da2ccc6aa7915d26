// Package search provides grounded web search through an LLM provider
// whose completions carry source attributions.
package search

import "context"

// Provider performs a web-grounded query and returns the model's
// synthesis along with the sources it consulted.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search runs a grounded query. A failed search is the one error the
	// verification flow propagates to the caller.
	Search(ctx context.Context, query string) (*GroundedResult, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GroundedResult is the outcome of a grounded search
type GroundedResult struct {
	// Text is the model's synthesized answer
	Text string

	// Sources are the deduplicated web sources behind the answer
	Sources []RawSource

	// HasGrounding reports whether any source attribution came back
	HasGrounding bool
}

// RawSource is a single web attribution from the search backend
type RawSource struct {
	URL     string
	Title   string
	Snippet string
}
