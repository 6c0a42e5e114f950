package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/speckled/api/schemas"
)

// throttledOracle shares one token bucket across every run using the
// wrapped oracle.
type throttledOracle struct {
	next    schemas.Oracle
	limiter *rate.Limiter
	logger  *zap.Logger
}

// WithRateLimit wraps oracle so calls are admitted at most rps per second
// with the given burst. A non-positive rps returns oracle unchanged.
func WithRateLimit(oracle schemas.Oracle, rps float64, burst int, logger *zap.Logger) schemas.Oracle {
	if rps <= 0 {
		return oracle
	}
	if burst < 1 {
		burst = 1
	}
	return &throttledOracle{
		next:    oracle,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger.Named("llm_limiter"),
	}
}

func (t *throttledOracle) Complete(ctx context.Context, conversation []schemas.Entry) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		t.logger.Debug("Context done while waiting for rate limiter.", zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.Complete(ctx, conversation)
}
