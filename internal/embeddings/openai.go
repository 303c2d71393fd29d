// ABOUTME: Embedding provider for OpenAI-compatible /v1/embeddings endpoints.
// ABOUTME: Loads lazily, batches requests, and returns L2-normalized vectors.
package embeddings

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"
)

// probeText is embedded once on load when the dimension is not configured.
const probeText = "dimension probe"

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int // 0 means probe on first load
	BatchSize  int
	Timeout    time.Duration
}

// OpenAIProvider embeds text through any OpenAI-compatible API (OpenAI, Ollama, vLLM).
type OpenAIProvider struct {
	cfg OpenAIConfig

	mu     sync.Mutex
	loaded *loadedModel
	loads  singleflight.Group
}

// loadedModel is the cached client plus the vector size it produces.
type loadedModel struct {
	client *openai.Client
	dim    int
}

// NewOpenAIProvider creates a provider. No network traffic happens until Embed.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIProvider{cfg: cfg}
}

// Available reports whether an endpoint or credential is configured.
func (p *OpenAIProvider) Available() bool {
	return p.cfg.BaseURL != "" || p.cfg.APIKey != ""
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.cfg.Model
}

// Dimension returns the vector size, or 0 if the model has not loaded yet
// and no dimension was configured.
func (p *OpenAIProvider) Dimension() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded != nil {
		return p.loaded.dim
	}
	return p.cfg.Dimensions
}

// Embed returns one normalized vector per text, in input order.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	m, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := p.request(ctx, m.client, texts[start:end])
		if err != nil {
			return nil, err
		}
		for i, v := range vecs {
			if len(v) != m.dim {
				return nil, fmt.Errorf("embedding %d has dimension %d, want %d", start+i, len(v), m.dim)
			}
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// load builds the client once per process. A failed load is not cached, so
// the next call retries; concurrent callers share a single attempt.
func (p *OpenAIProvider) load(ctx context.Context) (*loadedModel, error) {
	p.mu.Lock()
	if p.loaded != nil {
		m := p.loaded
		p.mu.Unlock()
		return m, nil
	}
	p.mu.Unlock()

	v, err, _ := p.loads.Do("load", func() (interface{}, error) {
		p.mu.Lock()
		if p.loaded != nil {
			m := p.loaded
			p.mu.Unlock()
			return m, nil
		}
		p.mu.Unlock()

		client := p.newClient()
		dim := p.cfg.Dimensions
		if dim <= 0 {
			vecs, err := p.request(ctx, client, []string{probeText})
			if err != nil {
				return nil, err
			}
			dim = len(vecs[0])
		}

		m := &loadedModel{client: client, dim: dim}
		p.mu.Lock()
		p.loaded = m
		p.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model %q: %w", p.cfg.Model, err)
	}
	return v.(*loadedModel), nil
}

func (p *OpenAIProvider) newClient() *openai.Client {
	// Ollama ignores the key but the client insists on sending one.
	apiKey := p.cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}
	config := openai.DefaultConfig(apiKey)
	if p.cfg.BaseURL != "" {
		config.BaseURL = p.cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: p.cfg.Timeout}
	return openai.NewClientWithConfig(config)
}

// request embeds one batch and returns vectors ordered by input position.
func (p *OpenAIProvider) request(ctx context.Context, client *openai.Client, batch []string) ([][]float32, error) {
	resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(p.cfg.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(batch))
	}

	vecs := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("embedding response has invalid index %d", d.Index)
		}
		if err := Normalize(d.Embedding); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", d.Index, err)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
