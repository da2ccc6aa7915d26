// Package cache stores verified claims in a vector index keyed by a
// deterministic hash of the query, and serves nearest-neighbor lookups
// for cache hits and duplicate suppression.
//
// The Store comes in two variants: connected and disabled. A failed
// index connection at startup yields the disabled variant, whose
// operations all short-circuit to neutral results, so the rest of the
// system runs unchanged with zero persistent cache. No error ever
// crosses the Store boundary.
package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/perspectai/perspectai/internal/embed"
	"github.com/perspectai/perspectai/internal/model"
)

const maxStoredSources = 3 // index metadata field count is capped externally

// Match is a nearest-neighbor result from the index
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Store is the duplicate-aware claim cache
type Store interface {
	// IsEnabled reports whether the underlying index connection is live
	IsEnabled() bool

	// StoreClaim embeds the query and upserts one vector with flattened
	// claim metadata. Reports success; failures are logged, never raised.
	StoreClaim(ctx context.Context, rec model.ClaimRecord) bool

	// QuerySimilar returns up to topK neighbors with score >= minScore,
	// in the index's own descending-similarity order. Empty when
	// disabled or on error.
	QuerySimilar(ctx context.Context, query string, topK int, minScore float64) []Match

	// BestMatch returns the single nearest neighbor when it clears the
	// cache-hit similarity threshold.
	BestMatch(ctx context.Context, query string) (Match, bool)

	// DeleteClaim removes a claim by id
	DeleteClaim(ctx context.Context, id string) bool
}

// New builds a Store over the given index. A nil index yields the
// disabled variant.
func New(index Index, embedder embed.Embedder, cfg model.VectorConfig) Store {
	if index == nil || embedder == nil {
		return disabled{}
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.75
	}
	if cfg.TopK == 0 {
		cfg.TopK = 5
	}
	return &connected{index: index, embedder: embedder, cfg: cfg}
}

// Disabled returns the no-op Store variant
func Disabled() Store {
	return disabled{}
}

type connected struct {
	index    Index
	embedder embed.Embedder
	cfg      model.VectorConfig
}

func (c *connected) IsEnabled() bool { return true }

func (c *connected) StoreClaim(ctx context.Context, rec model.ClaimRecord) bool {
	vector, err := c.embedder.Embed(ctx, rec.Query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedding for store failed: %v\n", err)
		return false
	}

	if err := c.index.Upsert(ctx, rec.ID, vector, flattenMetadata(rec)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: vector upsert failed: %v\n", err)
		return false
	}
	return true
}

func (c *connected) QuerySimilar(ctx context.Context, query string, topK int, minScore float64) []Match {
	if topK <= 0 {
		topK = c.cfg.TopK
	}

	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedding for query failed: %v\n", err)
		return nil
	}

	matches, err := c.index.Query(ctx, vector, topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: vector query failed: %v\n", err)
		return nil
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.Score >= minScore {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func (c *connected) BestMatch(ctx context.Context, query string) (Match, bool) {
	matches := c.QuerySimilar(ctx, query, 1, c.cfg.SimilarityThreshold)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

func (c *connected) DeleteClaim(ctx context.Context, id string) bool {
	if err := c.index.Delete(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: vector delete failed: %v\n", err)
		return false
	}
	return true
}

type disabled struct{}

func (disabled) IsEnabled() bool                                            { return false }
func (disabled) StoreClaim(context.Context, model.ClaimRecord) bool         { return false }
func (disabled) QuerySimilar(context.Context, string, int, float64) []Match { return nil }
func (disabled) BestMatch(context.Context, string) (Match, bool)            { return Match{}, false }
func (disabled) DeleteClaim(context.Context, string) bool                   { return false }

// flattenMetadata lays out a claim record as scalar index metadata.
// Source pairs beyond the first three are dropped.
func flattenMetadata(rec model.ClaimRecord) map[string]any {
	meta := map[string]any{
		"query":        truncate(rec.Query, 500),
		"verdict":      string(rec.Verdict),
		"confidence":   rec.Confidence,
		"summary":      truncate(rec.Summary, 1000),
		"source_count": len(rec.Sources),
		"timestamp":    rec.Timestamp,
	}
	if meta["timestamp"] == "" {
		meta["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	for i, src := range rec.Sources {
		if i >= maxStoredSources {
			break
		}
		meta[fmt.Sprintf("source_%d_url", i)] = truncate(src.URL, 500)
		meta[fmt.Sprintf("source_%d_title", i)] = truncate(src.Title, 200)
	}

	return meta
}

// UnflattenSources rebuilds the stored source list from flattened
// metadata, skipping slots without a URL.
func UnflattenSources(meta map[string]any) []model.SourceInfo {
	var sources []model.SourceInfo
	for i := 0; i < maxStoredSources; i++ {
		url, _ := meta[fmt.Sprintf("source_%d_url", i)].(string)
		if url == "" {
			continue
		}
		title, _ := meta[fmt.Sprintf("source_%d_title", i)].(string)
		if title == "" {
			title = "Cached Source"
		}
		sources = append(sources, model.SourceInfo{
			URL:         url,
			Title:       title,
			Credibility: "medium",
		})
	}
	return sources
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
