package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/perspectai/perspectai/internal/model"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := validateSleepFunc
	validateSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { validateSleepFunc = orig })
}

func testValidator(checkRobots bool) *SourceValidator {
	return NewSourceValidator(model.ValidationConfig{
		Timeout:     2 * time.Second,
		MaxWorkers:  5,
		UserAgent:   "PerspectAI/1.0-test",
		CheckRobots: checkRobots,
	})
}

func TestValidate_AccessibleSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	v := testValidator(false)
	results := v.Validate(context.Background(), []model.SourceInfo{
		{URL: server.URL, Title: "Known Title"},
	})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if !results[0].IsAccessible {
		t.Errorf("Expected accessible, got %+v", results[0])
	}
	if results[0].StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", results[0].StatusCode)
	}
	if results[0].Title != "Known Title" {
		t.Errorf("Title = %q, want provided title preserved", results[0].Title)
	}
}

func TestValidate_DeadSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v := testValidator(false)
	results := v.Validate(context.Background(), []model.SourceInfo{{URL: server.URL}})

	if results[0].IsAccessible {
		t.Error("Expected inaccessible for 404")
	}
	if results[0].StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", results[0].StatusCode)
	}
}

func TestValidate_FillsMissingTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`<html><head><title>Fetched Page Title</title></head><body></body></html>`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	v := testValidator(false)
	results := v.Validate(context.Background(), []model.SourceInfo{{URL: server.URL}})

	if results[0].Title != "Fetched Page Title" {
		t.Errorf("Title = %q, want fetched title", results[0].Title)
	}
}

func TestValidate_RetriesTransientErrors(t *testing.T) {
	noSleep(t)

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	v := testValidator(false)
	results := v.Validate(context.Background(), []model.SourceInfo{{URL: server.URL}})

	if !results[0].IsAccessible {
		t.Errorf("Expected success after retries, got %+v", results[0])
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Errorf("Expected 3 attempts, got %d", hits)
	}
}

func TestValidate_RobotsBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/robots.txt") {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	v := testValidator(true)
	results := v.Validate(context.Background(), []model.SourceInfo{
		{URL: server.URL + "/private/page"},
		{URL: server.URL + "/public/page"},
	})

	if !results[0].RobotsBlocked {
		t.Errorf("Expected robots block for /private/, got %+v", results[0])
	}
	if results[0].IsAccessible {
		t.Error("Blocked source must not be accessible")
	}
	if results[1].RobotsBlocked {
		t.Errorf("Expected /public/ allowed, got %+v", results[1])
	}
	if !results[1].IsAccessible {
		t.Errorf("Expected /public/ accessible, got %+v", results[1])
	}
}

func TestValidate_OrderPreserved(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	v := testValidator(false)
	results := v.Validate(context.Background(), []model.SourceInfo{
		{URL: ok.URL},
		{URL: gone.URL},
		{URL: ok.URL},
	})

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if !results[0].IsAccessible || results[1].IsAccessible || !results[2].IsAccessible {
		t.Errorf("Result order not preserved: %+v", results)
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	v := testValidator(false)
	results := v.Validate(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name   string
		result model.SourceStatus
		want   bool
	}{
		{"server error", model.SourceStatus{StatusCode: 500}, true},
		{"rate limited", model.SourceStatus{StatusCode: 429}, true},
		{"not found", model.SourceStatus{StatusCode: 404}, false},
		{"ok", model.SourceStatus{StatusCode: 200}, false},
		{"timeout", model.SourceStatus{Error: "request failed: context deadline exceeded (Client.Timeout)"}, true},
		{"connection refused", model.SourceStatus{Error: "request failed: dial tcp: connection refused"}, true},
		{"robots blocked", model.SourceStatus{RobotsBlocked: true, Error: "disallowed by robots.txt"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.result); got != tt.want {
				t.Errorf("isRetryable = %v, want %v", got, tt.want)
			}
		})
	}
}
