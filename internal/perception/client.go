// Package perception turns natural-language requests into the structured
// filters and command lines the command parser understands. It owns the
// model-completion clients, the response contract and the cached
// translator.
package perception

import (
	"context"
	"errors"
)

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrNoAPIKey is returned when a client is built without credentials.
var ErrNoAPIKey = errors.New("LLM API key not configured (set OPENAI_API_KEY or GEMINI_API_KEY)")

// ErrUnknownProvider is returned for providers the factory cannot build.
var ErrUnknownProvider = errors.New("unknown LLM provider")
