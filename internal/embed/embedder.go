package embed

import "context"

// Embedder produces a fixed-dimension vector for a piece of text. The remote
// OpenAI provider and the deterministic generator both satisfy it; failures
// are ordinary errors, never panics.
type Embedder interface {
	Embed(ctx context.Context, text string, dimensions int) ([]float64, error)
}
