package perception

import (
	"context"
	"fmt"
	"time"

	"cmdbar/internal/config"
	"cmdbar/internal/logging"
)

// NewClient builds the completion client cfg names, wrapped in a
// TimedLLMClient.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (LLMClient, error) {
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel(cfg.Provider)
	}

	var client LLMClient
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		oc := DefaultOpenAIConfig(cfg.APIKey)
		oc.Model = model
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if timeout > 0 {
			oc.Timeout = timeout
		}
		if cfg.MaxRetries > 0 {
			oc.MaxRetries = cfg.MaxRetries
		}
		client = NewOpenAIClient(oc)
	case config.ProviderGemini:
		gc, err := NewGeminiClient(ctx, GeminiConfig{APIKey: cfg.APIKey, Model: model, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		client = gc
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	logging.API("Using %s model %s", providerName(cfg.Provider), model)
	return NewTimedLLMClient(client, model), nil
}

func providerName(p string) string {
	if p == "" {
		return config.ProviderOpenAI
	}
	return p
}
