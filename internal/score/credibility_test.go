package score

import (
	"testing"

	"github.com/perspectai/perspectai/internal/model"
)

func TestScorer_Score_HighCredibilityDomains(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		url      string
		minScore float64
	}{
		{"https://www.cdc.gov/page", 0.90},
		{"https://www.who.int/news", 0.90},
		{"https://www.nature.com/articles/x", 0.85},
		{"https://www.reuters.com/world", 0.80},
		{"https://example.edu/research", 0.85},
	}

	for _, tt := range tests {
		got := scorer.Score(tt.url, "", "")
		if got < tt.minScore {
			t.Errorf("Score(%s) = %.2f, expected >= %.2f", tt.url, got, tt.minScore)
		}
	}
}

func TestScorer_Score_LowCredibilityDomains(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		url      string
		maxScore float64
	}{
		{"https://www.facebook.com/post", 0.40},
		{"https://twitter.com/user/status/1", 0.40},
		{"https://something.tumblr.com/x", 0.40},
	}

	for _, tt := range tests {
		got := scorer.Score(tt.url, "", "")
		if got > tt.maxScore {
			t.Errorf("Score(%s) = %.2f, expected <= %.2f", tt.url, got, tt.maxScore)
		}
	}
}

func TestScorer_Score_Deterministic(t *testing.T) {
	scorer := NewScorer()

	url := "https://randomblogsite.info/x"
	first := scorer.Score(url, "", "")

	if first < 0 || first > 1 {
		t.Fatalf("Score(%s) = %.2f, expected value in [0,1]", url, first)
	}

	for i := 0; i < 10; i++ {
		if got := scorer.Score(url, "", ""); got != first {
			t.Fatalf("Score(%s) not deterministic: %.4f != %.4f", url, got, first)
		}
	}
}

func TestScorer_Score_HeuristicAdjustments(t *testing.T) {
	scorer := NewScorer()

	// Organization keyword bonus
	org := scorer.Score("https://cancer-institute.org/report", "", "")
	plain := scorer.Score("https://example.org/report", "", "")
	if org <= plain {
		t.Errorf("Expected org keyword bonus: %.2f <= %.2f", org, plain)
	}

	// Blog keyword penalty
	blog := scorer.Score("https://myblogsite.info/x", "", "")
	if blog >= plain {
		t.Errorf("Expected blog keyword penalty: %.2f >= %.2f", blog, plain)
	}
}

func TestScorer_Score_MalformedURL(t *testing.T) {
	scorer := NewScorer()

	if got := scorer.Score("not a url at all", "", ""); got != 0.50 {
		t.Errorf("Expected default 0.50 for malformed URL, got %.2f", got)
	}
}

func TestScorer_Tier(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.cdc.gov/page", TierHigh},
		{"https://www.bbc.com/news", TierHigh},
		{"https://www.facebook.com/post", TierLow},
		{"https://www.tiktok.com/@user", TierMedium}, // not in any table
		{"https://unknown-site.com/x", TierMedium},
	}

	for _, tt := range tests {
		if got := scorer.Tier(tt.url); got != tt.want {
			t.Errorf("Tier(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestScorer_Rank_NonIncreasing(t *testing.T) {
	scorer := NewScorer()

	items := []model.EvidenceItem{
		{Title: "Blog", URL: "https://someblog.wordpress.com/post"},
		{Title: "CDC", URL: "https://www.cdc.gov/page"},
		{Title: "Unknown", URL: "https://example.com/x"},
		{Title: "Reuters", URL: "https://www.reuters.com/article"},
	}

	ranked := scorer.Rank(items)

	if len(ranked) != len(items) {
		t.Fatalf("Expected %d items, got %d", len(items), len(ranked))
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i].CredibilityScore > ranked[i-1].CredibilityScore {
			t.Errorf("Rank order violated at %d: %.2f > %.2f", i,
				ranked[i].CredibilityScore, ranked[i-1].CredibilityScore)
		}
	}

	if ranked[0].Title != "CDC" {
		t.Errorf("Expected CDC ranked first, got %s", ranked[0].Title)
	}

	// Input must not be mutated
	if items[0].CredibilityScore != 0 {
		t.Error("Rank modified its input slice")
	}
}

func TestScorer_PrimarySource(t *testing.T) {
	scorer := NewScorer()

	items := []model.EvidenceItem{
		{URL: "https://someblog.wordpress.com/post"},
		{URL: "https://www.nih.gov/study"},
	}

	if got := scorer.PrimarySource(items); got != "https://www.nih.gov/study" {
		t.Errorf("PrimarySource = %s, want nih.gov study", got)
	}

	if got := scorer.PrimarySource(nil); got != "" {
		t.Errorf("Expected empty primary source for no sources, got %s", got)
	}
}
