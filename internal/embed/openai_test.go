package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/perspectai/perspectai/internal/model"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	vector := make([]float32, 384)
	for i := range vector {
		vector[i] = float32(i) / 384
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Expected path /embeddings, got %s", r.URL.Path)
		}
		resp := openai.EmbeddingResponse{
			Data: []openai.Embedding{{Embedding: vector}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedder(model.EmbeddingConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Dimension: 384,
	})
	if err != nil {
		t.Fatalf("Failed to create embedder: %v", err)
	}

	if embedder.Dimension() != 384 {
		t.Errorf("Dimension = %d, want 384", embedder.Dimension())
	}

	got, err := embedder.Embed(context.Background(), "is the earth flat")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(got) != 384 {
		t.Errorf("Embedding length = %d, want 384", len(got))
	}
}

func TestNewOpenAIEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(model.EmbeddingConfig{})
	if err == nil {
		t.Fatal("Expected error when API key missing")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"mismatched lengths", []float32{1, 0}, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}
