package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Moderator scores text against the content-policy categories.
type Moderator interface {
	Moderate(ctx context.Context, input string) (*ModerationResult, error)
}
