package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/perspectai/perspectai/internal/model"
)

// Index is the external nearest-neighbor store behind the claim cache.
// Upserts to the same id overwrite (last write wins); upserts to
// different ids are independent single-key operations.
type Index interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Delete(ctx context.Context, id string) error
}

// PineconeIndex talks to a Pinecone-compatible serverless index over
// its REST data plane.
type PineconeIndex struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

// NewPineconeIndex creates a remote index client and verifies the
// connection with a describe call, so a bad key or host is caught at
// startup rather than on the first request.
func NewPineconeIndex(ctx context.Context, cfg model.VectorConfig) (*PineconeIndex, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vector index API key is required")
	}
	if cfg.IndexHost == "" {
		return nil, fmt.Errorf("vector index host is required")
	}

	host := cfg.IndexHost
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	idx := &PineconeIndex{
		host:   strings.TrimSuffix(host, "/"),
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	if err := idx.describe(ctx); err != nil {
		return nil, fmt.Errorf("connect to vector index: %w", err)
	}

	return idx, nil
}

type upsertRequest struct {
	Vectors []upsertVector `json:"vectors"`
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// Upsert writes a single vector with metadata
func (p *PineconeIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	req := upsertRequest{
		Vectors: []upsertVector{{ID: id, Values: vector, Metadata: metadata}},
	}
	return p.post(ctx, "/vectors/upsert", req, nil)
}

// Query returns the topK nearest neighbors in descending similarity
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	req := queryRequest{Vector: vector, TopK: topK, IncludeMetadata: true}

	var resp queryResponse
	if err := p.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// Delete removes a vector by id
func (p *PineconeIndex) Delete(ctx context.Context, id string) error {
	return p.post(ctx, "/vectors/delete", deleteRequest{IDs: []string{id}}, nil)
}

func (p *PineconeIndex) describe(ctx context.Context) error {
	return p.post(ctx, "/describe_index_stats", struct{}{}, nil)
}

func (p *PineconeIndex) post(ctx context.Context, path string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("index error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
