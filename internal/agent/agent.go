// Package agent implements the rapid verification layer: intent
// classification, duplicate-aware vector caching, grounded search and
// structured verdict synthesis.
package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/perspectai/perspectai/internal/cache"
	"github.com/perspectai/perspectai/internal/llm"
	"github.com/perspectai/perspectai/internal/model"
	"github.com/perspectai/perspectai/internal/score"
	"github.com/perspectai/perspectai/internal/search"
	"github.com/perspectai/perspectai/internal/verdict"
)

// Sampling temperatures per call site. Synthesis runs cold for format
// stability, the retry colder still, conversation warm.
const (
	synthesisTemperature      = 0.15
	retryTemperature          = 0.1
	conversationalTemperature = 0.7
)

const contextExcerptLimit = 500

// Agent orchestrates a single verification request end to end
type Agent struct {
	llm    llm.Provider
	search search.Provider
	cache  cache.Store
	scorer *score.Scorer
	cfg    model.VectorConfig

	// now is swappable for tests
	now func() time.Time
}

// New creates an Agent over the given collaborators. A disabled cache
// store is valid; the agent then verifies every request fresh.
func New(llmProvider llm.Provider, searchProvider search.Provider, store cache.Store, cfg model.VectorConfig) *Agent {
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.75
	}
	if cfg.DuplicateThreshold == 0 {
		cfg.DuplicateThreshold = 0.90
	}
	if store == nil {
		store = cache.Disabled()
	}
	return &Agent{
		llm:    llmProvider,
		search: searchProvider,
		cache:  store,
		scorer: score.NewScorer(),
		cfg:    cfg,
		now:    time.Now,
	}
}

// ProcessRequest runs the full verification flow:
//
//  1. Classify intent
//  2. Check the vector cache for a similar resolved claim
//  3. On a confident match, serve the cached result
//  4. Otherwise perform grounded web search
//  5. Synthesize a structured verdict (or conversational answer)
//  6. Store the result unless a near-duplicate already exists
//
// The cache-hit check and the duplicate check share one nearest-neighbor
// lookup: the raw top score is held and compared against both
// thresholds. A failed web search is the only error returned; every
// other failure degrades to a usable response.
func (a *Agent) ProcessRequest(ctx context.Context, req model.QueryRequest) (*model.QueryResponse, error) {
	query := req.Query
	intent := a.classifyIntent(ctx, query)

	if intent == model.IntentArchive {
		return &model.QueryResponse{
			Intent:     intent,
			Summary:    "Archive search is not yet implemented.",
			Sources:    []model.SourceInfo{},
			SearchUsed: model.SearchUsedLLM,
		}, nil
	}

	useCache := a.cache.IsEnabled() && req.UseVectorDB

	// Single lookup serving both decisions: serve-from-cache at the
	// similarity threshold, skip-storage at the duplicate threshold.
	topScore := -1.0
	var best cache.Match
	if useCache {
		if matches := a.cache.QuerySimilar(ctx, query, 1, 0); len(matches) > 0 {
			best = matches[0]
			topScore = best.Score
		}
	}

	if topScore >= a.cfg.SimilarityThreshold && !req.RequireWebSearch {
		return a.buildResponseFromCache(best, intent), nil
	}

	searchResult, err := a.search.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	sources := a.parseSources(searchResult.Sources)

	var resp *model.QueryResponse
	var rec model.ClaimRecord

	if intent == model.IntentFactCheck || intent == model.IntentCrisis {
		sv := a.synthesizeVerdict(ctx, query, searchResult.Text, searchResult.Sources)

		resp = &model.QueryResponse{
			Intent:     intent,
			Verdict:    sv.Verdict,
			Confidence: sv.Confidence,
			Summary:    sv.Summary,
			Evidence:   &sv.Evidence,
			Sources:    sources,
			SearchUsed: model.SearchUsedWeb,
		}
		rec = model.ClaimRecord{
			Verdict:    sv.Verdict,
			Confidence: sv.Confidence,
			Summary:    sv.Summary,
		}
	} else {
		answer := a.conversationalAnswer(ctx, query, searchResult.Text)

		resp = &model.QueryResponse{
			Intent:     intent,
			Summary:    answer,
			Sources:    sources,
			SearchUsed: model.SearchUsedWeb,
		}
		rec = model.ClaimRecord{
			Verdict:    model.VerdictGeneral,
			Confidence: 0.85,
			Summary:    answer,
		}
	}

	if useCache && topScore < a.cfg.DuplicateThreshold {
		rec.ID = model.ClaimID(query)
		rec.Query = query
		rec.SourceCount = len(sources)
		rec.Sources = topSources(sources, 3)
		rec.Timestamp = a.now().UTC().Format(time.RFC3339)
		a.cache.StoreClaim(ctx, rec)
	}

	return resp, nil
}

// classifyIntent asks the LLM for one category label. Any failure or
// unknown label degrades to GENERAL: every query must produce an answer.
func (a *Agent) classifyIntent(ctx context.Context, query string) model.IntentType {
	resp, err := a.llm.Generate(ctx, llm.GenerateRequest{
		System: systemPersona,
		Prompt: intentPrompt(query),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: intent classification failed: %v\n", err)
		return model.IntentGeneral
	}
	return model.ParseIntent(strings.ToUpper(strings.TrimSpace(resp.Text)))
}

// synthesizeVerdict produces the structured verdict for a claim. A
// parse failure triggers exactly one retry carrying the parser's error
// back to the model; past that the deterministic fallback record is
// used. Never fails.
func (a *Agent) synthesizeVerdict(ctx context.Context, query, searchContext string, raw []search.RawSource) *model.StructuredVerdict {
	timestamp := a.now().UTC().Format(time.RFC3339)

	resp, err := a.llm.Generate(ctx, llm.GenerateRequest{
		System:      systemPersona,
		Prompt:      verdictPrompt(query, searchContext, timestamp),
		Temperature: synthesisTemperature,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: verdict synthesis failed: %v\n", err)
		return verdict.Fallback(query, excerpt(searchContext), "Error processing claim")
	}

	sv, err := verdict.Parse(resp.Text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: verdict parse failed, retrying: %v\n", err)
		sv = a.retryVerdictParse(ctx, query, searchContext, timestamp, err.Error())
	}

	a.enhanceWithCredibility(sv, raw)
	return sv
}

// retryVerdictParse is the single clarifying retry after a parse
// failure. If it fails too, the fallback record is returned.
func (a *Agent) retryVerdictParse(ctx context.Context, query, searchContext, timestamp, errMsg string) *model.StructuredVerdict {
	resp, err := a.llm.Generate(ctx, llm.GenerateRequest{
		Prompt:      retryPrompt(query, excerpt(searchContext), errMsg),
		Temperature: retryTemperature,
	})
	if err == nil {
		if sv, parseErr := verdict.Parse(resp.Text); parseErr == nil {
			sv.Timestamp = timestamp
			return sv
		}
	}

	fmt.Fprintf(os.Stderr, "Warning: verdict retry failed\n")
	return verdict.Fallback(query, excerpt(searchContext), "Failed to parse structured response after retry")
}

// conversationalAnswer generates a natural reply for general queries.
// On failure it degrades to the raw search context, then to an apology.
func (a *Agent) conversationalAnswer(ctx context.Context, query, searchContext string) string {
	if strings.TrimSpace(searchContext) == "" {
		searchContext = "No search results available."
	}

	resp, err := a.llm.Generate(ctx, llm.GenerateRequest{
		System:      systemPersona,
		Prompt:      conversationalPrompt(query, searchContext),
		Temperature: conversationalTemperature,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: conversational response failed: %v\n", err)
		if searchContext != "" {
			if len(searchContext) > 1000 {
				return searchContext[:1000]
			}
			return searchContext
		}
		return "I apologize, but I encountered an error generating a response."
	}

	return resp.Text
}

// parseSources converts raw search attributions into cited sources
// with a domain-based credibility tier.
func (a *Agent) parseSources(raw []search.RawSource) []model.SourceInfo {
	sources := make([]model.SourceInfo, 0, len(raw))
	for _, src := range raw {
		title := src.Title
		if title == "" {
			title = "Source"
		}
		sources = append(sources, model.SourceInfo{
			URL:         src.URL,
			Title:       title,
			Credibility: a.scorer.Tier(src.URL),
			Excerpt:     src.Snippet,
		})
	}
	return sources
}

// enhanceWithCredibility fills in credibility scores on evidence items
// from the actual search sources and promotes the most credible source
// to primary.
func (a *Agent) enhanceWithCredibility(sv *model.StructuredVerdict, raw []search.RawSource) {
	if len(raw) == 0 {
		return
	}

	items := make([]model.EvidenceItem, 0, len(raw))
	for _, src := range raw {
		items = append(items, model.EvidenceItem{
			URL:     src.URL,
			Title:   src.Title,
			Excerpt: src.Snippet,
		})
	}
	ranked := a.scorer.Rank(items)

	urlScore := make(map[string]float64, len(ranked))
	for _, item := range ranked {
		urlScore[item.URL] = item.CredibilityScore
	}

	fill := func(items []model.EvidenceItem) {
		for i := range items {
			if s, ok := urlScore[items[i].URL]; ok {
				items[i].CredibilityScore = s
			} else if items[i].CredibilityScore == 0 {
				items[i].CredibilityScore = a.scorer.Score(items[i].URL, items[i].Title, items[i].Excerpt)
			}
		}
	}
	fill(sv.Evidence.Supporting)
	fill(sv.Evidence.Contradicting)
	fill(sv.Evidence.Neutral)

	if len(ranked) > 0 {
		sv.Provenance.PrimarySource = ranked[0].URL
	}
}

// buildResponseFromCache rebuilds a response from flattened claim
// metadata. Cached conversational answers keep the GENERAL marker so
// the chat surface can skip the verdict badge.
func (a *Agent) buildResponseFromCache(match cache.Match, intent model.IntentType) *model.QueryResponse {
	meta := match.Metadata

	verdictStr, _ := meta["verdict"].(string)
	var v model.VerdictType
	if verdictStr == string(model.VerdictGeneral) {
		v = model.VerdictGeneral
	} else {
		v, _ = model.ParseVerdict(verdictStr)
	}

	confidence := 0.8
	if c, ok := meta["confidence"].(float64); ok {
		confidence = c
	}

	summary, _ := meta["summary"].(string)
	if summary == "" {
		summary = "Cached result"
	}

	return &model.QueryResponse{
		Intent:     intent,
		Verdict:    v,
		Confidence: confidence,
		Summary:    summary,
		Sources:    cache.UnflattenSources(meta),
		SearchUsed: model.SearchUsedVectorDB,
	}
}

func topSources(sources []model.SourceInfo, n int) []model.SourceInfo {
	if len(sources) <= n {
		return sources
	}
	return sources[:n]
}

func excerpt(s string) string {
	if len(s) <= contextExcerptLimit {
		return s
	}
	return s[:contextExcerptLimit]
}
