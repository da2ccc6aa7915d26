package model

// VerdictType is the fact-check classification attached to a claim
type VerdictType string

const (
	VerdictTrue       VerdictType = "TRUE"
	VerdictFalse      VerdictType = "FALSE"
	VerdictMisleading VerdictType = "MISLEADING"
	VerdictUnverified VerdictType = "UNVERIFIED"
	VerdictComplex    VerdictType = "COMPLEX"

	// VerdictGeneral is only used for cached conversational answers,
	// never produced by the structured synthesis path.
	VerdictGeneral VerdictType = "GENERAL"
)

// ParseVerdict maps a raw label to a VerdictType.
// Unrecognized labels degrade to UNVERIFIED rather than failing.
func ParseVerdict(s string) (VerdictType, bool) {
	switch VerdictType(s) {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverified, VerdictComplex:
		return VerdictType(s), true
	}
	return VerdictUnverified, false
}

// IntentType is the coarse category assigned to a user query
type IntentType string

const (
	IntentFactCheck IntentType = "FACT_CHECK"
	IntentCrisis    IntentType = "CRISIS"
	IntentGeneral   IntentType = "GENERAL"
	IntentArchive   IntentType = "ARCHIVE"
)

// ParseIntent maps a raw classification label to an IntentType.
// Anything unrecognized defaults to GENERAL (fail-open: every query
// must produce some answer).
func ParseIntent(s string) IntentType {
	switch IntentType(s) {
	case IntentFactCheck, IntentCrisis, IntentGeneral, IntentArchive:
		return IntentType(s)
	}
	return IntentGeneral
}

// SourceInfo describes a cited source attached to a response
type SourceInfo struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Credibility string `json:"credibility"` // high, medium, or low
	Date        string `json:"date,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
}

// EvidenceItem is a single piece of evidence with credibility scoring
type EvidenceItem struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	Excerpt          string  `json:"excerpt"`
	CredibilityScore float64 `json:"credibility_score"`
}

// Evidence groups evidence items by their relation to the claim
type Evidence struct {
	Supporting    []EvidenceItem `json:"supporting"`
	Contradicting []EvidenceItem `json:"contradicting"`
	Neutral       []EvidenceItem `json:"neutral"`
}

// Provenance records which sources were considered and which was primary
type Provenance struct {
	SourcesConsidered []string `json:"sources_considered"`
	PrimarySource     string   `json:"primary_source,omitempty"`
	SearchMethod      string   `json:"search_method"` // GROUNDED_SEARCH, CACHED, VECTOR_DB, ERROR
}

// StructuredVerdict is the full machine-readable verdict produced by synthesis
type StructuredVerdict struct {
	Verdict                  VerdictType `json:"verdict"`
	Confidence               float64     `json:"confidence"`
	Summary                  string      `json:"summary"`
	Reasoning                []string    `json:"reasoning"`
	Evidence                 Evidence    `json:"evidence"`
	Provenance               Provenance  `json:"provenance"`
	ActionableRecommendation string      `json:"actionable_recommendation,omitempty"`
	Timestamp                string      `json:"timestamp"`
	UISummary                string      `json:"ui_summary,omitempty"`
}

// Search methods reported in QueryResponse.SearchUsed
const (
	SearchUsedWeb      = "web_search"
	SearchUsedVectorDB = "vector_db"
	SearchUsedLLM      = "llm"
)

// QueryRequest is a verification request
type QueryRequest struct {
	Query            string `json:"query"`
	UseVectorDB      bool   `json:"use_vector_db"`
	RequireWebSearch bool   `json:"require_web_search"`
}

// QueryResponse is the result returned for every processed request
type QueryResponse struct {
	Intent           IntentType   `json:"intent"`
	Verdict          VerdictType  `json:"verdict,omitempty"`
	Confidence       float64      `json:"confidence"`
	Summary          string       `json:"summary"`
	Evidence         *Evidence    `json:"evidence,omitempty"`
	Sources          []SourceInfo `json:"sources"`
	SearchUsed       string       `json:"search_used"`
	ProcessingTimeMS int64        `json:"processing_time_ms,omitempty"`
}

// ChatSource is a source citation in a chat response
type ChatSource struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// ChatRequest is an incoming chat message
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the flat chat-formatted reply
type ChatResponse struct {
	Response     string       `json:"response"`
	Sources      []ChatSource `json:"sources"`
	HasGrounding bool         `json:"has_grounding"`
}

// HealthResponse reports service status for the health endpoints
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// SourceStatus is the result of validating a cited source
type SourceStatus struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	IsAccessible  bool   `json:"is_accessible"`
	StatusCode    int    `json:"status_code,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	RobotsBlocked bool   `json:"robots_blocked,omitempty"`
	Error         string `json:"error,omitempty"`
}
