package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

// RetryConfig tunes the retry middleware. Zero fields take the defaults
// listed on each field.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one. Default: 3.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed wait. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth per attempt. Default: 2.
	BackoffFactor float64

	// JitterFraction adds up to this fraction of the backoff at random.
	// Default: 0.1.
	JitterFraction float64

	// RetryableFunc decides whether err is worth another attempt. Default:
	// ai.Classify(err).Retryable(), i.e. rate limits and provider outages.
	RetryableFunc func(err error) bool

	// Logger receives one WARN record per retry. Default: slog.Default().
	Logger *slog.Logger
}

func defaultRetryable(err error) bool {
	return ai.Classify(err).Retryable()
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = defaultRetryable
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
}

// computeBackoff returns min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)
// plus jitter, for a 0-indexed attempt.
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}
	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // jitter needs no crypto
	return time.Duration(base + jitter)
}

// NewRetryMiddleware retries failed non-streaming calls with exponential
// backoff. Streams are never retried: the returned config has no Stream
// function.
//
// A non-retryable error is returned as is. After the last attempt the error
// wraps both ErrRetryExhausted and the last failure.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatResponse, error) {
				var lastErr error

				for attempt := 0; attempt <= config.MaxRetries; attempt++ {
					if attempt > 0 {
						backoff := computeBackoff(config, attempt-1)
						config.Logger.WarnContext(ctx, "retrying llm request",
							slog.String("provider", call.Target.Model.Kind.String()),
							slog.String("model", call.Target.Model.Name),
							slog.Int("attempt", attempt),
							slog.Duration("backoff", backoff),
							slog.String("error_class", string(ai.Classify(lastErr))),
						)

						timer := time.NewTimer(backoff)
						select {
						case <-ctx.Done():
							timer.Stop()
							return nil, ai.ContextError(call.Target.Model, ctx.Err())
						case <-timer.C:
						}
					}

					response, err := next(ctx, call)
					if err == nil {
						return response, nil
					}
					lastErr = err

					if !config.RetryableFunc(err) {
						return nil, err
					}
				}

				return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
			}
		},
	}
}
