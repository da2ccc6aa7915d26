package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/perspectai/perspectai/internal/model"
)

// stubEmbedder returns canned unit vectors per text
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no stub vector for %q", text)
}

func (s *stubEmbedder) Dimension() int { return 3 }

func testConfig() model.VectorConfig {
	return model.VectorConfig{
		SimilarityThreshold: 0.75,
		DuplicateThreshold:  0.90,
		TopK:                5,
	}
}

func TestDisabledStore_Neutral(t *testing.T) {
	store := Disabled()
	ctx := context.Background()

	if store.IsEnabled() {
		t.Error("Expected disabled store")
	}
	if store.StoreClaim(ctx, model.ClaimRecord{ID: "x", Query: "q"}) {
		t.Error("Expected StoreClaim to report false when disabled")
	}
	if got := store.QuerySimilar(ctx, "q", 5, 0); len(got) != 0 {
		t.Errorf("Expected empty result when disabled, got %d", len(got))
	}
	if _, ok := store.BestMatch(ctx, "q"); ok {
		t.Error("Expected no best match when disabled")
	}
}

func TestNew_NilIndexDegradesToDisabled(t *testing.T) {
	store := New(nil, &stubEmbedder{}, testConfig())
	if store.IsEnabled() {
		t.Error("Expected nil index to yield disabled store")
	}
}

func TestStoreClaim_FlattensMetadata(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(0)
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"is the earth flat": {1, 0, 0},
	}}
	store := New(index, embedder, testConfig())

	sources := make([]model.SourceInfo, 5)
	for i := range sources {
		sources[i] = model.SourceInfo{
			URL:   fmt.Sprintf("https://example.com/%d", i),
			Title: fmt.Sprintf("Source %d", i),
		}
	}

	ok := store.StoreClaim(ctx, model.ClaimRecord{
		ID:         model.ClaimID("Is the earth flat"),
		Query:      "is the earth flat",
		Verdict:    model.VerdictFalse,
		Confidence: 0.95,
		Summary:    "Not flat.",
		Sources:    sources,
	})
	if !ok {
		t.Fatal("StoreClaim failed")
	}

	matches, err := index.Query(ctx, []float32{1, 0, 0}, 1)
	if err != nil || len(matches) != 1 {
		t.Fatalf("Expected 1 stored vector, got %d (err %v)", len(matches), err)
	}

	meta := matches[0].Metadata
	if meta["verdict"] != "FALSE" {
		t.Errorf("verdict metadata = %v, want FALSE", meta["verdict"])
	}

	// Only the first 3 sources survive the metadata size cap
	if _, ok := meta["source_2_url"]; !ok {
		t.Error("Expected source_2_url present")
	}
	if _, ok := meta["source_3_url"]; ok {
		t.Error("Expected source_3_url dropped by top-3 truncation")
	}
}

func TestStoreClaim_SameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(0)
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"claim": {1, 0, 0},
	}}
	store := New(index, embedder, testConfig())

	rec := model.ClaimRecord{ID: "abc", Query: "claim", Verdict: model.VerdictTrue, Summary: "first"}
	store.StoreClaim(ctx, rec)
	rec.Summary = "second"
	store.StoreClaim(ctx, rec)

	if index.Len() != 1 {
		t.Fatalf("Expected overwrite to keep 1 entry, got %d", index.Len())
	}

	matches, _ := index.Query(ctx, []float32{1, 0, 0}, 1)
	if matches[0].Metadata["summary"] != "second" {
		t.Errorf("Expected last write to win, got %v", matches[0].Metadata["summary"])
	}
}

func TestQuerySimilar_OrderAndThreshold(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(0)
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"exact":   {1, 0, 0},
		"close":   {0.9, 0.4359, 0}, // ~0.9 similarity to exact
		"far":     {0, 1, 0},
		"probe":   {1, 0, 0},
	}}
	store := New(index, embedder, testConfig())

	for _, q := range []string{"exact", "close", "far"} {
		store.StoreClaim(ctx, model.ClaimRecord{ID: q, Query: q, Verdict: model.VerdictTrue})
	}

	matches := store.QuerySimilar(ctx, "probe", 5, 0)
	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches with no floor, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("Descending order violated at %d", i)
		}
	}
	if matches[0].ID != "exact" {
		t.Errorf("Expected exact match first, got %s", matches[0].ID)
	}

	// With the floor at 0.85 only exact and close survive
	filtered := store.QuerySimilar(ctx, "probe", 5, 0.85)
	if len(filtered) != 2 {
		t.Errorf("Expected 2 matches above 0.85, got %d", len(filtered))
	}
}

func TestBestMatch_RequiresSimilarityThreshold(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(0)
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"stored": {1, 0, 0},
		"near":   {0.8, 0.6, 0},  // 0.8 similarity: above 0.75 bar
		"off":    {0.5, 0.866, 0}, // 0.5 similarity: below bar
	}}
	store := New(index, embedder, testConfig())

	store.StoreClaim(ctx, model.ClaimRecord{ID: "s", Query: "stored", Verdict: model.VerdictTrue})

	if _, ok := store.BestMatch(ctx, "near"); !ok {
		t.Error("Expected best match at similarity 0.8 (>= 0.75)")
	}
	if _, ok := store.BestMatch(ctx, "off"); ok {
		t.Error("Expected no best match at similarity 0.5 (< 0.75)")
	}
}

func TestDeleteClaim(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex(0)
	embedder := &stubEmbedder{vectors: map[string][]float32{"q": {1, 0, 0}}}
	store := New(index, embedder, testConfig())

	store.StoreClaim(ctx, model.ClaimRecord{ID: "id1", Query: "q"})
	if !store.DeleteClaim(ctx, "id1") {
		t.Error("DeleteClaim failed")
	}
	if index.Len() != 0 {
		t.Errorf("Expected empty index after delete, got %d entries", index.Len())
	}
}

func TestUnflattenSources(t *testing.T) {
	meta := map[string]any{
		"source_0_url":   "https://a.com",
		"source_0_title": "A",
		"source_1_url":   "",
		"source_2_url":   "https://c.com",
		"source_2_title": "",
	}

	sources := UnflattenSources(meta)
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].URL != "https://a.com" || sources[0].Title != "A" {
		t.Errorf("Unexpected first source: %+v", sources[0])
	}
	if sources[1].Title != "Cached Source" {
		t.Errorf("Expected default title for empty title, got %q", sources[1].Title)
	}
}

func TestClaimID_CaseInsensitiveIdentity(t *testing.T) {
	a := model.ClaimID("Is The Earth FLAT?")
	b := model.ClaimID("is the earth flat?")

	if a != b {
		t.Errorf("Expected identical ids for case-differing queries: %s != %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Expected 16-char id, got %d", len(a))
	}
	if c := model.ClaimID("a completely different claim"); c == a {
		t.Error("Expected different queries to yield different ids")
	}
}
