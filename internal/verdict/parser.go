// Package verdict parses the two-part structured responses produced by
// the synthesis model: a JSON block (optionally fenced) followed by a
// blank-line-separated "Short summary:" line.
package verdict

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/perspectai/perspectai/internal/model"
)

// requiredFields must all be present in the JSON block
var requiredFields = []string{"verdict", "confidence", "summary", "reasoning", "evidence", "provenance"}

var summaryMarker = regexp.MustCompile(`(?i)^short summary:\s*`)

// ParseError reports why a response could not be parsed. The message is
// fed back to the model in the agent's one-shot retry prompt.
type ParseError struct {
	Reason  string
	Missing []string
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// segmentKind classifies a blank-line-delimited segment of the response
type segmentKind int

const (
	segmentOther segmentKind = iota
	segmentJSON
	segmentSummary
)

func classifySegment(s string) segmentKind {
	switch {
	case strings.HasPrefix(s, "{") || strings.Contains(s, "```"):
		return segmentJSON
	case summaryMarker.MatchString(s) || strings.Contains(strings.ToLower(s), "summary:"):
		return segmentSummary
	default:
		return segmentOther
	}
}

// Parse decodes a raw synthesis response into a StructuredVerdict.
//
// The input is segmented on blank lines; the first JSON-shaped segment
// becomes the structured record and any later summary-marked segment
// becomes the UI summary. A verdict label outside the enumeration is
// coerced to UNVERIFIED rather than failing; a missing timestamp is
// filled with the current UTC time. Everything else missing or
// malformed is a *ParseError.
func Parse(raw string) (*model.StructuredVerdict, error) {
	segments := strings.Split(raw, "\n\n")

	jsonPart := ""
	summaryPart := ""

	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if classifySegment(seg) != segmentJSON {
			continue
		}
		jsonPart = seg
		for _, rest := range segments[i+1:] {
			if classifySegment(strings.TrimSpace(rest)) == segmentSummary {
				summaryPart = strings.TrimSpace(rest)
				break
			}
		}
		break
	}

	if jsonPart == "" {
		return nil, &ParseError{Reason: "no JSON found in response"}
	}

	jsonPart = stripFences(jsonPart)

	// First pass: raw keys, so missing fields can be named in the error
	var rawFields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonPart), &rawFields); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("failed to parse JSON verdict: %v", err)}
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := rawFields[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Reason: "missing required fields", Missing: missing}
	}

	// Second pass: typed decode
	var sv model.StructuredVerdict
	if err := json.Unmarshal([]byte(jsonPart), &sv); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("failed to decode verdict fields: %v", err)}
	}

	// Lenient verdict coercion: malformed labels degrade, not abort
	normalized, _ := model.ParseVerdict(strings.ToUpper(string(sv.Verdict)))
	sv.Verdict = normalized

	if summaryPart != "" {
		sv.UISummary = strings.TrimSpace(summaryMarker.ReplaceAllString(summaryPart, ""))
	}
	if sv.UISummary == "" {
		sv.UISummary = sv.Summary
	}
	if sv.Summary == "" {
		sv.Summary = sv.UISummary
	}

	if sv.Timestamp == "" {
		sv.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return &sv, nil
}

// stripFences removes a markdown code fence around the JSON block
func stripFences(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	return s
}

// Fallback constructs the deterministic UNVERIFIED record used when
// parsing fails past the retry budget. Never fails.
func Fallback(query, context, reason string) *model.StructuredVerdict {
	return &model.StructuredVerdict{
		Verdict:    model.VerdictUnverified,
		Confidence: 0.3,
		Summary:    fmt.Sprintf("%s. Unable to verify: %s", reason, truncate(query, 100)),
		Reasoning: []string{
			"Step 1: Attempted to analyze the claim",
			fmt.Sprintf("Step 2: %s", reason),
			"Step 3: Defaulting to UNVERIFIED due to processing error",
		},
		Evidence: model.Evidence{
			Supporting:    []model.EvidenceItem{},
			Contradicting: []model.EvidenceItem{},
			Neutral:       []model.EvidenceItem{},
		},
		Provenance: model.Provenance{
			SourcesConsidered: []string{},
			SearchMethod:      "ERROR",
		},
		ActionableRecommendation: "Please try rephrasing your question or try again later.",
		Timestamp:                time.Now().UTC().Format(time.RFC3339),
		UISummary:                fmt.Sprintf("Could not verify this claim: %s", reason),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
