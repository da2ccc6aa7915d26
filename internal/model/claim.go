package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ClaimRecord is the persisted cache entry for a verified claim.
// It mirrors the flattened metadata layout of the vector index.
type ClaimRecord struct {
	ID          string       `json:"id"`
	Query       string       `json:"query"`
	Verdict     VerdictType  `json:"verdict"`
	Confidence  float64      `json:"confidence"`
	Summary     string       `json:"summary"`
	SourceCount int          `json:"source_count"`
	Sources     []SourceInfo `json:"sources,omitempty"` // at most 3 retained
	Timestamp   string       `json:"timestamp"`
}

// ClaimID derives the stable identity of a claim from its query text.
// Case differences do not change the id, so re-submitting the same
// query always maps to the same record and storage stays idempotent.
func ClaimID(query string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(query)))
	return hex.EncodeToString(hash[:])[:16]
}
