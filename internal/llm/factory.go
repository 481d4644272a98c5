package llm

import (
	"fmt"

	"go.uber.org/zap"

	"pkdindustries/chorus/internal/config"
	"pkdindustries/chorus/internal/core"
)

// New builds the configured backend wrapped with retries and call logging
func New(cfg *config.Configuration, logger *zap.SugaredLogger) (Gateway, error) {
	var backend Gateway
	switch cfg.Model.Provider {
	case config.ProviderAnthropic:
		backend = NewAnthropic(cfg.API.AnthropicKey, cfg.API.Timeout)
	case config.ProviderOpenAI:
		backend = NewOpenAI(cfg.API.OpenAIKey, cfg.API.OpenAIURL, cfg.API.Timeout)
	case config.ProviderPolly:
		backend = NewPolly(PollyKeys{
			OpenAI:    cfg.API.OpenAIKey,
			Anthropic: cfg.API.AnthropicKey,
			Gemini:    cfg.API.GeminiKey,
			Ollama:    cfg.API.OllamaKey,
		}, cfg.API.OllamaURL, cfg.API.Timeout)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", core.ErrConfig, cfg.Model.Provider)
	}

	logger = logger.With("provider", cfg.Model.Provider)
	return NewRetrying(&Logging{Next: backend, Logger: logger}, cfg.API.Attempts, logger), nil
}
