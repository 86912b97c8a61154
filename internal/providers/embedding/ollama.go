package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Ollama embeds through a local Ollama server. The first call runs a
// warm-up request that loads the model server-side and pins its
// dimensionality; texts within a batch are embedded sequentially
// because the API takes one prompt per request.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client

	warmOnce sync.Once
	warmErr  error
}

func NewOllama(baseURL, model string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *Ollama) warmUp(ctx context.Context) error {
	o.warmOnce.Do(func() {
		vec, err := o.embedOne(ctx, "warm-up")
		if err != nil {
			o.warmErr = err
			return
		}
		if len(vec) != Dim {
			o.warmErr = fmt.Errorf("model %s produces %d-dim vectors, index needs %d", o.model, len(vec), Dim)
		}
	})
	return o.warmErr
}

func (o *Ollama) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned empty embedding")
	}
	return out.Embedding, nil
}

func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := o.warmUp(ctx); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := o.embedOne(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
