package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/MikeSquared-Agency/mnemosyne/internal/embed"
)

// Embedder calls the OpenAI embeddings API. It satisfies embed.Embedder so
// the engine can swap between it and the deterministic generator.
type Embedder struct {
	client *openai.Client
	model  string
}

func NewEmbedder(apiKey, model string) *Embedder {
	return &Embedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string, dimensions int) ([]float64, error) {
	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vec := rsp.Data[0].Embedding
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out, nil
}

var _ embed.Embedder = (*Embedder)(nil)
