package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI embeds whole batches through the OpenAI API, requesting
// vectors sized to the index dimensionality.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      o.model,
		Dimensions: Dim,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai returned out-of-range embedding index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
