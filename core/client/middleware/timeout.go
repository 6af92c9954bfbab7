package middleware

import (
	"context"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

// NewTimeoutMiddleware bounds every call with a deadline. An expired deadline
// surfaces as *ai.TimeoutError, matched by errors.Is(err, ai.ErrTimeout).
//
// For streams the deadline covers the whole stream, not only the first byte:
// the context is released when the stream ends or is abandoned. A shorter
// caller deadline still wins.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatResponse, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				return next(ctx, call)
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatStream, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)

				stream, err := next(ctx, call)
				if err != nil {
					cancel()
					return nil, err
				}
				return client.WrapStream(stream, func(*ai.StreamEnd, error) { cancel() }), nil
			}
		},
	}
}
