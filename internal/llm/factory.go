package llm

import (
	"fmt"
	"os"
)

// NewProvider creates an LLM provider based on the given backend and model.
// Supported backends: "local" (Ollama-compatible server), "openai",
// "anthropic". Selection happens once at startup; the returned Provider is
// injected wherever a gateway is needed.
func NewProvider(backend string, model string, endpoint string) (Provider, error) {
	switch backend {
	case "local":
		if endpoint == "" {
			endpoint = os.Getenv("OLLAMA_HOST")
		}
		if endpoint == "" {
			endpoint = "http://localhost:11434"
		}
		return NewOllamaProvider(endpoint, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model), nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}
