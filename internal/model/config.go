package model

import "time"

// Config holds the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Search     SearchConfig     `yaml:"search"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Vector     VectorConfig     `yaml:"vector"`
	Validation ValidationConfig `yaml:"validation"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Output     OutputConfig     `yaml:"output"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// LLMConfig configures the language-model provider used for
// classification and synthesis
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, ollama
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     int     `yaml:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// SearchConfig configures the grounded-search provider
type SearchConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	Timeout   int    `yaml:"timeout"` // seconds
}

// VectorConfig configures the vector cache and its decision thresholds
type VectorConfig struct {
	Provider  string `yaml:"provider"` // pinecone, memory, "" (disabled)
	APIKey    string `yaml:"api_key"`
	IndexHost string `yaml:"index_host"`

	// SimilarityThreshold is the cache-hit bar: a nearest neighbor at or
	// above it is served instead of a fresh search.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// DuplicateThreshold is the dedupe bar for storage, strictly higher
	// than SimilarityThreshold: duplicate suppression is deliberately more
	// conservative than cache serving.
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`

	TopK int `yaml:"top_k"`
}

// ValidationConfig configures cited-source validation
type ValidationConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxWorkers  int           `yaml:"max_workers"`
	UserAgent   string        `yaml:"user_agent"`
	CheckRobots bool          `yaml:"check_robots"`
}

// RateLimitConfig configures per-client request limiting
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   120 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "",
			Timeout:     60,
			MaxTokens:   2000,
			Temperature: 0.15,
		},
		Search: SearchConfig{
			Model:   "gemini-2.5-pro",
			Timeout: 60,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Dimension: 384,
			Timeout:   30,
		},
		Vector: VectorConfig{
			Provider:            "",
			SimilarityThreshold: 0.75,
			DuplicateThreshold:  0.90,
			TopK:                5,
		},
		Validation: ValidationConfig{
			Timeout:     10 * time.Second,
			MaxWorkers:  20,
			UserAgent:   "PerspectAI/1.0 (+https://github.com/perspectai/perspectai)",
			CheckRobots: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10.0 / 60.0, // 10 per minute
			Burst:             10,
		},
	}
}
