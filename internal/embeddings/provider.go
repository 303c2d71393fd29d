// ABOUTME: Embedding capability interface and the unavailable stub.
// ABOUTME: Callers probe Available() before asking for vectors.
package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no embedding backend is configured.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider turns text into fixed-dimension, L2-normalized vectors.
type Provider interface {
	// Available reports whether the embedding backend can be constructed.
	// It does not load the model.
	Available() bool

	// Embed returns one vector per input text, in input order. The first
	// call may load the model, which can be slow and can fail.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Unavailable is the Provider used when no embedding backend is configured.
type Unavailable struct {
	Reason string
}

// Available always returns false.
func (u Unavailable) Available() bool {
	return false
}

// Embed always fails with ErrUnavailable.
func (u Unavailable) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if u.Reason == "" {
		return nil, ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}
