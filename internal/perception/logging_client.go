package perception

import (
	"context"
	"sync/atomic"
	"time"

	"cmdbar/internal/logging"
)

// slowCallThreshold marks model calls worth a warning.
const slowCallThreshold = 10 * time.Second

// TimedLLMClient wraps any LLMClient, logging the duration and outcome of
// every call under the api category.
type TimedLLMClient struct {
	underlying LLMClient
	model      string
	calls      atomic.Int64
}

// NewTimedLLMClient creates a timing wrapper around an existing client.
func NewTimedLLMClient(underlying LLMClient, model string) *TimedLLMClient {
	return &TimedLLMClient{underlying: underlying, model: model}
}

// Calls reports how many completions went through the wrapper.
func (c *TimedLLMClient) Calls() int64 {
	return c.calls.Load()
}

// Complete sends a prompt and returns the completion.
func (c *TimedLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem forwards to the wrapped client.
func (c *TimedLLMClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	n := c.calls.Add(1)
	timer := logging.StartTimer(logging.CategoryAPI, "completion "+c.model)

	resp, err := c.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	elapsed := timer.StopWithThreshold(slowCallThreshold)
	if err != nil {
		logging.APIError("completion #%d (%s) failed after %v: %v", n, c.model, elapsed, err)
		return "", err
	}
	return resp, nil
}
