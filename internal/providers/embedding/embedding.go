package embedding

import "context"

// Dim is the dimensionality of the index's vector column. Providers
// must produce vectors of exactly this size; indexing and retrieval
// must use the same provider.
const Dim = 768

// Provider embeds texts into the shared vector space.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
