package cache

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/perspectai/perspectai/internal/embed"
)

// MemoryIndex is an in-process Index for development and tests.
// Entries live in a TTL-aware store and queries rank every live entry
// by cosine similarity.
type MemoryIndex struct {
	entries *gocache.Cache
}

type memoryEntry struct {
	vector   []float32
	metadata map[string]any
}

// NewMemoryIndex creates an in-memory index. A zero ttl keeps entries
// forever.
func NewMemoryIndex(ttl time.Duration) *MemoryIndex {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryIndex{
		entries: gocache.New(ttl, 10*time.Minute),
	}
}

// Upsert stores or overwrites a vector by id
func (m *MemoryIndex) Upsert(_ context.Context, id string, vector []float32, metadata map[string]any) error {
	v := make([]float32, len(vector))
	copy(v, vector)
	m.entries.Set(id, memoryEntry{vector: v, metadata: metadata}, gocache.DefaultExpiration)
	return nil
}

// Query ranks all live entries by cosine similarity, descending
func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int) ([]Match, error) {
	var matches []Match
	for id, item := range m.entries.Items() {
		entry, ok := item.Object.(memoryEntry)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			ID:       id,
			Score:    embed.CosineSimilarity(vector, entry.vector),
			Metadata: entry.metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes an entry by id
func (m *MemoryIndex) Delete(_ context.Context, id string) error {
	m.entries.Delete(id)
	return nil
}

// Len reports the number of live entries
func (m *MemoryIndex) Len() int {
	return m.entries.ItemCount()
}
