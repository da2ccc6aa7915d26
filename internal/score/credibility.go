package score

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/perspectai/perspectai/internal/model"
)

// Credibility tiers reported on sources
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// highCredibilityDomains maps domain substrings to fixed scores.
// Government, education, health organizations and major wire services.
var highCredibilityDomains = []struct {
	pattern string
	score   float64
}{
	{".gov", 0.95},
	{".edu", 0.90},
	{"who.int", 0.95},
	{"cdc.gov", 0.95},
	{"nih.gov", 0.95},
	{"nature.com", 0.90},
	{"science.org", 0.90},
	{"sciencedirect.com", 0.85},
	{"reuters.com", 0.85},
	{"apnews.com", 0.85},
	{"bbc.com", 0.80},
	{"theguardian.com", 0.80},
	{"nytimes.com", 0.80},
	{"washingtonpost.com", 0.80},
	{"npr.org", 0.80},
}

// lowCredibilityDomains maps social platforms and blog hosts to fixed scores.
var lowCredibilityDomains = []struct {
	pattern string
	score   float64
}{
	{"facebook.com", 0.30},
	{"twitter.com", 0.35},
	{"reddit.com", 0.40},
	{"medium.com", 0.50},
	{"wordpress.com", 0.45},
	{"blogspot.com", 0.40},
	{"tumblr.com", 0.35},
}

var (
	orgKeywords        = []string{"university", "institute", "foundation", "organization", "association"}
	newsKeywords       = []string{"news", "times", "post", "journal", "telegraph", "herald"}
	blogKeywords       = []string{"blog", "personal", "diary"}
	commercialKeywords = []string{"shop", "store", "buy", "sale"}
)

// Scorer computes source credibility from domain reputation and
// content-quality heuristics. Pure: same input always yields the
// same score.
type Scorer struct{}

// NewScorer creates a new credibility scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes a 0-1 credibility score for a source.
// Domain reputation dominates; unknown domains get a heuristic base
// score adjusted by keyword bonuses and penalties, clamped to [0,1].
func (s *Scorer) Score(rawURL, title, excerpt string) float64 {
	domain, ok := hostOf(rawURL)
	if !ok {
		return 0.50 // default for malformed URLs
	}

	for _, d := range highCredibilityDomains {
		if strings.Contains(domain, d.pattern) {
			return d.score
		}
	}

	for _, d := range lowCredibilityDomains {
		if strings.Contains(domain, d.pattern) {
			return d.score
		}
	}

	base := 0.60 // default for unknown sources

	if containsAny(domain, orgKeywords) {
		base += 0.15
	}
	if containsAny(domain, newsKeywords) {
		base += 0.10
	}
	if containsAny(domain, blogKeywords) {
		base -= 0.10
	}
	if containsAny(domain, commercialKeywords) {
		base -= 0.05
	}

	return math.Min(math.Max(base, 0.0), 1.0)
}

// Tier buckets a URL into a coarse high/medium/low credibility label
func (s *Scorer) Tier(rawURL string) string {
	domain, ok := hostOf(rawURL)
	if !ok {
		return TierMedium
	}

	for _, d := range highCredibilityDomains {
		if strings.Contains(domain, d.pattern) {
			return TierHigh
		}
	}
	for _, d := range lowCredibilityDomains {
		if strings.Contains(domain, d.pattern) && d.score < 0.45 {
			return TierLow
		}
	}
	return TierMedium
}

// Rank sorts evidence items by credibility, descending, annotating each
// item with its score rounded to 2 decimals. The input slice is not
// modified.
func (s *Scorer) Rank(items []model.EvidenceItem) []model.EvidenceItem {
	ranked := make([]model.EvidenceItem, len(items))
	copy(ranked, items)

	for i := range ranked {
		ranked[i].CredibilityScore = round2(s.Score(ranked[i].URL, ranked[i].Title, ranked[i].Excerpt))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CredibilityScore > ranked[j].CredibilityScore
	})

	return ranked
}

// PrimarySource returns the URL of the most credible source, or ""
func (s *Scorer) PrimarySource(items []model.EvidenceItem) string {
	if len(items) == 0 {
		return ""
	}
	ranked := s.Rank(items)
	return ranked[0].URL
}

func hostOf(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Hostname()), true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
