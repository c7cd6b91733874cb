package llm

import "context"

// Provider defines the interface for completion providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Transport is a provider that can report up front whether it is usable in
// the current context, e.g. whether credentials or a client session exist.
type Transport interface {
	Provider
	Available(ctx context.Context) bool
}
