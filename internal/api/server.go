// Package api exposes the verification agent over HTTP: health checks,
// structured claim verification and a chat-formatted surface.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/perspectai/perspectai/internal/model"
	"github.com/perspectai/perspectai/internal/worker"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// Verifier processes a single verification request
type Verifier interface {
	ProcessRequest(ctx context.Context, req model.QueryRequest) (*model.QueryResponse, error)
}

// Server is the HTTP API over the verification agent
type Server struct {
	router       *mux.Router
	verifier     Verifier
	cacheEnabled bool
	limiter      *worker.Limiter
	cfg          model.ServerConfig
}

// NewServer creates the API server. cacheEnabled only affects health
// reporting.
func NewServer(verifier Verifier, cacheEnabled bool, cfg model.ServerConfig, rateCfg model.RateLimitConfig) *Server {
	if rateCfg.RequestsPerSecond == 0 {
		rateCfg.RequestsPerSecond = 10.0 / 60.0
	}
	if rateCfg.Burst == 0 {
		rateCfg.Burst = 10
	}

	s := &Server{
		router:       mux.NewRouter(),
		verifier:     verifier,
		cacheEnabled: cacheEnabled,
		limiter:      worker.NewLimiter(rateCfg.RequestsPerSecond, rateCfg.Burst),
		cfg:          cfg,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/verify", s.handleVerify).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/chat", s.rateLimited(s.handleChat)).Methods(http.MethodPost, http.MethodOptions)
	s.router.Use(s.corsMiddleware)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8000"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	vectorStatus := "disabled"
	if s.cacheEnabled {
		vectorStatus = "online"
	}

	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:  "healthy",
		Version: Version,
		Services: map[string]string{
			"rapid_agent":    "online",
			"search_service": "online",
			"vector_db":      vectorStatus,
		},
	})
}

// verifyRequest decodes with cache use defaulting to on
type verifyRequest struct {
	Query            string `json:"query"`
	UseVectorDB      *bool  `json:"use_vector_db"`
	RequireWebSearch bool   `json:"require_web_search"`
}

func (v verifyRequest) toQueryRequest() model.QueryRequest {
	useVectorDB := true
	if v.UseVectorDB != nil {
		useVectorDB = *v.UseVectorDB
	}
	return model.QueryRequest{
		Query:            v.Query,
		UseVectorDB:      useVectorDB,
		RequireWebSearch: v.RequireWebSearch,
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	resp, err := s.verifier.ProcessRequest(r.Context(), req.toQueryRequest())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: verify request failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp.ProcessingTimeMS = time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.verifier.ProcessRequest(r.Context(), model.QueryRequest{
		Query:       req.Message,
		UseVectorDB: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: chat request failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing request: %v", err))
		return
	}

	sources := make([]model.ChatSource, 0, len(result.Sources))
	for _, src := range result.Sources {
		title := src.Title
		if title == "" {
			title = "Source"
		}
		sources = append(sources, model.ChatSource{
			URL:     src.URL,
			Title:   title,
			Snippet: src.Excerpt,
		})
	}

	writeJSON(w, http.StatusOK, model.ChatResponse{
		Response:     FormatChatResponse(result),
		Sources:      sources,
		HasGrounding: len(sources) > 0,
	})
}

// rateLimited applies the per-client limiter to a handler
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// corsMiddleware answers preflight requests and stamps allowed origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
