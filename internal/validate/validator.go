// Package validate checks cited sources for accessibility: HEAD
// probes with retry, robots.txt compliance, and title extraction for
// sources that arrived without one.
package validate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/perspectai/perspectai/internal/model"
	"github.com/perspectai/perspectai/internal/util"
)

const (
	validateMaxRetries = 3
	titleBodyLimit     = 64 * 1024
)

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// SourceValidator validates cited sources concurrently
type SourceValidator struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	robots     *util.RobotsChecker
}

// NewSourceValidator creates a validator from config. Robots checking
// is skipped when disabled in config.
func NewSourceValidator(cfg model.ValidationConfig) *SourceValidator {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 20
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "PerspectAI/1.0 (+https://github.com/perspectai/perspectai)"
	}

	var robots *util.RobotsChecker
	if cfg.CheckRobots {
		robots = util.NewRobotsChecker(userAgent, timeout)
	}

	return &SourceValidator{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
		robots:     robots,
	}
}

// Validate probes all sources concurrently, bounded by maxWorkers.
// Results keep input order.
func (v *SourceValidator) Validate(ctx context.Context, sources []model.SourceInfo) []model.SourceStatus {
	if len(sources) == 0 {
		return []model.SourceStatus{}
	}

	results := make([]model.SourceStatus, len(sources))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s model.SourceInfo) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.SourceStatus{
					URL:          s.URL,
					Title:        s.Title,
					IsAccessible: false,
					Error:        "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateSingleWithRetry(ctx, s)
		}(i, src)
	}

	wg.Wait()

	return results
}

// validateSingle probes one source with a HEAD request
func (v *SourceValidator) validateSingle(ctx context.Context, src model.SourceInfo) model.SourceStatus {
	result := model.SourceStatus{
		URL:          src.URL,
		Title:        src.Title,
		IsAccessible: false,
	}

	if v.robots != nil && !v.robots.IsAllowed(ctx, src.URL) {
		result.RobotsBlocked = true
		result.Error = "disallowed by robots.txt"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, src.URL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}

	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	}

	if resp.Request.URL.String() != src.URL {
		result.RedirectURL = resp.Request.URL.String()
	}

	if result.IsAccessible && result.Title == "" {
		result.Title = v.fetchTitle(ctx, src.URL)
	}

	return result
}

// validateSingleWithRetry retries transient failures with exponential backoff
func (v *SourceValidator) validateSingleWithRetry(ctx context.Context, src model.SourceInfo) model.SourceStatus {
	var result model.SourceStatus
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.validateSingle(ctx, src)
		if !isRetryable(result) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// fetchTitle pulls the page title from the first 64 KiB of the body.
// Best effort only; a missing title stays empty.
func (v *SourceValidator) fetchTitle(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, titleBodyLimit))
	if err != nil {
		return ""
	}

	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}

// isRetryable returns true for results that indicate transient failures
func isRetryable(result model.SourceStatus) bool {
	if result.RobotsBlocked {
		return false
	}
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" && isRetryableNetworkError(result.Error) {
		return true
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
