// ABOUTME: Embedding endpoint validation for the setup wizard.
// ABOUTME: Embeds a probe string to confirm the URL, model, and key work together.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/2389-research/curate/internal/embeddings"
)

const validateProbe = "curate setup probe"

// ValidateEmbedding tests the endpoint by embedding a single probe string.
// The context allows cancellation when the user quits during validation.
func ValidateEmbedding(ctx context.Context, baseURL, model, apiKey string) error {
	if model == "" {
		return fmt.Errorf("model is required")
	}

	p := embeddings.NewOpenAIProvider(embeddings.OpenAIConfig{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Model:     model,
		BatchSize: 1,
		Timeout:   10 * time.Second,
	})

	vecs, err := p.Embed(ctx, []string{validateProbe})
	if err != nil {
		return err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return fmt.Errorf("endpoint returned no embedding for model %s", model)
	}
	return nil
}
