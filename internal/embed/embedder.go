// Package embed generates fixed-length text embeddings for semantic
// lookups in the vector cache.
package embed

import (
	"context"
	"math"
)

// Embedder turns text into a fixed-length numeric vector
type Embedder interface {
	// Embed generates the embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector length this embedder produces
	Dimension() int
}

// CosineSimilarity computes similarity between two vectors in [−1,1].
// Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
