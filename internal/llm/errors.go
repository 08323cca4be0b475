package llm

import "fmt"

// GatewayError wraps any failure to obtain a completion from a backend:
// transport errors, non-2xx responses, and malformed provider envelopes.
type GatewayError struct {
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func gatewayErr(provider string, format string, args ...any) error {
	return &GatewayError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
