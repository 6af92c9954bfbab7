package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// LogLevel controls how much the logging middleware records per call.
type LogLevel int

const (
	// LogLevelMinimal logs provider, model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the last message and the response text, truncated
	// to 500 characters.
	//
	// WARNING: prompts and responses may contain personal data or secrets.
	// Do not use it in production.
	LogLevelVerbose
)

const truncateLen = 500

// NewLoggingMiddleware logs every call before it is sent and once it
// completes. For streams the completion record is written when the stream
// ends, and captured content is only available when the caller enabled
// capture.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatResponse, error) {
				logger.InfoContext(ctx, "llm send", requestAttrs(call, level)...)

				start := time.Now()
				response, err := next(ctx, call)
				if err != nil {
					logFailure(ctx, logger, call, "llm send failed", start, err)
					return nil, err
				}

				attrs := append(baseAttrs(call), slog.Duration("duration", time.Since(start)))
				attrs = append(attrs, resultAttrs(response.FinishReason, response.Usage, response.Content, level)...)
				logger.InfoContext(ctx, "llm send completed", attrs...)
				return response, nil
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatStream, error) {
				logger.InfoContext(ctx, "llm stream", requestAttrs(call, level)...)

				start := time.Now()
				stream, err := next(ctx, call)
				if err != nil {
					logFailure(ctx, logger, call, "llm stream failed", start, err)
					return nil, err
				}

				return client.WrapStream(stream, func(end *ai.StreamEnd, err error) {
					switch {
					case err != nil:
						logFailure(ctx, logger, call, "llm stream failed", start, err)
					case end == nil:
						logger.InfoContext(ctx, "llm stream abandoned", append(baseAttrs(call), slog.Duration("duration", time.Since(start)))...)
					default:
						content := ""
						if end.Content != nil {
							content = *end.Content
						}
						attrs := append(baseAttrs(call), slog.Duration("duration", time.Since(start)))
						attrs = append(attrs, resultAttrs(end.FinishReason, end.Usage, content, level)...)
						logger.InfoContext(ctx, "llm stream completed", attrs...)
					}
				}), nil
			}
		},
	}
}

func baseAttrs(call client.Call) []any {
	return []any{
		slog.String("provider", call.Target.Model.Kind.String()),
		slog.String("model", call.Target.Model.Name),
	}
}

func requestAttrs(call client.Call, level LogLevel) []any {
	attrs := baseAttrs(call)
	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("message_count", len(call.Request.Messages)))
	}
	if level >= LogLevelVerbose && len(call.Request.Messages) > 0 {
		last := call.Request.Messages[len(call.Request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", utils.TruncateString(last.Content, truncateLen)),
		)
	}
	return attrs
}

func resultAttrs(finishReason string, usage *ai.Usage, content string, level LogLevel) []any {
	var attrs []any
	if usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", usage.Prompt()),
			slog.Int("completion_tokens", usage.Completion()),
			slog.Int("total_tokens", usage.Total()),
		)
	}
	if level >= LogLevelStandard && finishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", finishReason))
	}
	if level >= LogLevelVerbose && content != "" {
		attrs = append(attrs, slog.String("response_content", utils.TruncateString(content, truncateLen)))
	}
	return attrs
}

func logFailure(ctx context.Context, logger *slog.Logger, call client.Call, msg string, start time.Time, err error) {
	attrs := append(baseAttrs(call),
		slog.Duration("duration", time.Since(start)),
		slog.String("error_class", string(ai.Classify(err))),
		slog.String("error", err.Error()),
	)
	logger.ErrorContext(ctx, msg, attrs...)
}
