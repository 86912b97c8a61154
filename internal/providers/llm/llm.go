package llm

import "context"

type Provider interface {
	// Generate returns the complete answer text for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}
