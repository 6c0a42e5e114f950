package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

// NewClient is a factory function that creates the configured oracle,
// throttled per cfg.RequestsPerSecond.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (schemas.Oracle, error) {
	var (
		oracle schemas.Oracle
		err    error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		oracle, err = NewGeminiClient(ctx, cfg, logger)
	case config.ProviderOllama:
		oracle, err = NewOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]", cfg.Provider, config.ProviderGemini, config.ProviderOllama)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("LLM client initialized.", zap.String("provider", string(cfg.Provider)), zap.String("model", cfg.Model))
	return WithRateLimit(oracle, cfg.RequestsPerSecond, cfg.Burst, logger), nil
}
