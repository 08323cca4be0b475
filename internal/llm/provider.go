package llm

import "context"

// Provider is the gateway contract to a text-completion backend. Callers
// receive the raw completion text; provider-specific response shapes never
// leak past this interface. No retries happen at this layer.
type Provider interface {
	// Generate sends a prompt and returns the completion text.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Name returns the name of this provider.
	Name() string
}
