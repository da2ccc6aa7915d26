package api

import (
	"fmt"
	"strings"

	"github.com/perspectai/perspectai/internal/model"
)

// verdictEmoji decorates the chat verdict badge
var verdictEmoji = map[model.VerdictType]string{
	model.VerdictTrue:       "✅",
	model.VerdictFalse:      "❌",
	model.VerdictMisleading: "⚠️",
	model.VerdictUnverified: "❓",
	model.VerdictComplex:    "\U0001f504",
}

// FormatChatResponse renders a verification result as a chat message:
// verdict badge, confidence, summary, up to two evidence items per
// side, and a cache marker when the answer was served from the vector
// store. Conversational answers (no verdict, or the GENERAL cache
// marker) get no badge.
func FormatChatResponse(resp *model.QueryResponse) string {
	var parts []string

	if resp.Verdict != "" && resp.Verdict != model.VerdictGeneral {
		emoji := verdictEmoji[resp.Verdict]
		parts = append(parts, fmt.Sprintf("**Verdict**: %s %s", emoji, resp.Verdict))
	}

	if resp.Confidence > 0 && resp.Verdict != "" && resp.Verdict != model.VerdictGeneral {
		parts = append(parts, fmt.Sprintf("**Confidence**: %d%%", int(resp.Confidence*100)))
	}

	if resp.Summary != "" {
		parts = append(parts, "\n"+resp.Summary)
	} else {
		parts = append(parts, "\nNo summary available.")
	}

	if resp.Evidence != nil {
		if items := formatEvidence(resp.Evidence.Supporting); items != "" {
			parts = append(parts, "\n**Supporting Evidence**:", items)
		}
		if items := formatEvidence(resp.Evidence.Contradicting); items != "" {
			parts = append(parts, "\n**Contradicting Evidence**:", items)
		}
	}

	if resp.SearchUsed == model.SearchUsedVectorDB {
		parts = append(parts, "\n\n_\U0001f4be Retrieved from cache_")
	}

	return strings.Join(parts, "\n")
}

// formatEvidence renders at most two items as bullet lines
func formatEvidence(items []model.EvidenceItem) string {
	var lines []string
	for i, item := range items {
		if i >= 2 {
			break
		}
		label := item.Title
		if label == "" {
			label = item.URL
		}
		if item.Excerpt != "" {
			lines = append(lines, fmt.Sprintf("• %s: %s", label, item.Excerpt))
		} else {
			lines = append(lines, fmt.Sprintf("• %s", label))
		}
	}
	return strings.Join(lines, "\n")
}
