package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/perspectai/perspectai/internal/agent"
	"github.com/perspectai/perspectai/internal/cache"
	"github.com/perspectai/perspectai/internal/embed"
	"github.com/perspectai/perspectai/internal/llm"
	"github.com/perspectai/perspectai/internal/model"
	"github.com/perspectai/perspectai/internal/search"
)

const memoryIndexTTL = 24 * time.Hour

// loadConfig merges defaults, the config file, env overrides, and the
// vendor API-key environment variables into one Config.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	overlayString(&cfg.Server.Addr, "server.addr")
	if origins := viper.GetStringSlice("server.allowed_origins"); len(origins) > 0 {
		cfg.Server.AllowedOrigins = origins
	}

	overlayString(&cfg.LLM.Provider, "llm.provider")
	overlayString(&cfg.LLM.Model, "llm.model")
	overlayString(&cfg.LLM.BaseURL, "llm.base_url")
	overlayString(&cfg.Search.Model, "search.model")
	overlayString(&cfg.Embedding.Model, "embedding.model")
	overlayString(&cfg.Vector.Provider, "vector.provider")
	overlayString(&cfg.Vector.IndexHost, "vector.index_host")
	overlayFloat(&cfg.Vector.SimilarityThreshold, "vector.similarity_threshold")
	overlayFloat(&cfg.Vector.DuplicateThreshold, "vector.duplicate_threshold")
	overlayFloat(&cfg.RateLimit.RequestsPerSecond, "rate_limit.requests_per_second")

	// API keys come from the vendor environment variables
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	cfg.Search.APIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.Search.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	// Embeddings ride on the OpenAI key regardless of the LLM provider
	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")

	if cfg.Vector.Provider == "pinecone" {
		cfg.Vector.APIKey = os.Getenv("PINECONE_API_KEY")
		if host := os.Getenv("PINECONE_INDEX_HOST"); host != "" {
			cfg.Vector.IndexHost = host
		}
	}

	return cfg, nil
}

func overlayString(dst *string, key string) {
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}

func overlayFloat(dst *float64, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

// buildStore connects the configured vector index. Connection failures
// degrade to the disabled store rather than aborting startup.
func buildStore(ctx context.Context, cfg *model.Config) cache.Store {
	switch cfg.Vector.Provider {
	case "pinecone":
		embedder, err := embed.NewOpenAIEmbedder(cfg.Embedding)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: embedder unavailable, cache disabled: %v\n", err)
			return cache.Disabled()
		}
		index, err := cache.NewPineconeIndex(ctx, cfg.Vector)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: vector index unavailable, cache disabled: %v\n", err)
			return cache.Disabled()
		}
		return cache.New(index, embedder, cfg.Vector)
	case "memory":
		embedder, err := embed.NewOpenAIEmbedder(cfg.Embedding)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: embedder unavailable, cache disabled: %v\n", err)
			return cache.Disabled()
		}
		return cache.New(cache.NewMemoryIndex(memoryIndexTTL), embedder, cfg.Vector)
	default:
		return cache.Disabled()
	}
}

// buildAgent wires the LLM, search, and cache collaborators
func buildAgent(ctx context.Context, cfg *model.Config) (*agent.Agent, cache.Store, error) {
	llmProvider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}

	searchProvider, err := search.NewGeminiProvider(cfg.Search)
	if err != nil {
		return nil, nil, fmt.Errorf("create search provider: %w", err)
	}

	store := buildStore(ctx, cfg)

	if verbose {
		fmt.Fprintf(os.Stderr, "LLM provider: %s\n", llmProvider.Name())
		fmt.Fprintf(os.Stderr, "Search provider: %s\n", searchProvider.Name())
		fmt.Fprintf(os.Stderr, "Vector cache: %v\n", store.IsEnabled())
	}

	return agent.New(llmProvider, searchProvider, store, cfg.Vector), store, nil
}
