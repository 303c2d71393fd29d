// ABOUTME: Builds the configured embedding Provider from curate config.
// ABOUTME: Maps provider names to OpenAI-compatible clients or the unavailable stub.
package embeddings

import (
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/curate/internal/config"
)

// NewProvider returns the Provider described by cfg. Unknown or disabled
// providers yield Unavailable so deduplication degrades instead of failing.
func NewProvider(cfg config.EmbeddingConfig) Provider {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case config.ProviderOpenAI:
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return Unavailable{Reason: "openai provider requires api_key"}
		}
		return NewOpenAIProvider(openAIConfig(cfg, cfg.BaseURL))

	case config.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultBaseURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		return NewOpenAIProvider(openAIConfig(cfg, baseURL))

	case config.ProviderNone, "":
		return Unavailable{Reason: "embedding provider disabled"}

	default:
		return Unavailable{Reason: fmt.Sprintf("unsupported embedding provider: %s", provider)}
	}
}

func openAIConfig(cfg config.EmbeddingConfig, baseURL string) OpenAIConfig {
	return OpenAIConfig{
		BaseURL:    baseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		BatchSize:  cfg.BatchSize,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}
