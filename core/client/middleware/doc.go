// Package middleware provides ready-made middlewares for the unillm client.
// Each constructor returns a [client.MiddlewareConfig] for
// [client.WithMiddleware].
//
//   - [NewTimeoutMiddleware] bounds each call with a deadline.
//   - [NewRetryMiddleware] retries rate-limited and failed-provider calls with
//     exponential backoff. Streams are not retried.
//   - [NewLoggingMiddleware] writes slog records around each call.
//
// The first middleware given is the outermost:
//
//	c, err := client.New(client.WithMiddleware(
//	    middleware.NewTimeoutMiddleware(30*time.Second),
//	    middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	    middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	))
//
// Here the deadline covers all retries, and every attempt is logged.
package middleware
