package client

import (
	"context"
	"time"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// NewObservabilityMiddleware records a span, request and token counters and
// a duration histogram for every call. For streams the outcome is recorded
// when the stream ends, so the duration covers the whole body.
//
// The span and observer are attached to the context passed down the chain;
// the HTTP layer adds its request events to that span.
//
// New installs it as the outermost middleware when WithObserver is used, so
// it sees the final outcome after retries and timeouts.
func NewObservabilityMiddleware(observer observability.Provider) MiddlewareConfig {
	return MiddlewareConfig{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, call Call) (*ai.ChatResponse, error) {
				ctx, span, start := startObserved(ctx, observer, observability.SpanClientChat, call, false)

				response, err := next(ctx, call)
				if err != nil {
					recordFailure(ctx, observer, span, call, false, start, err)
					return nil, err
				}
				recordSuccess(ctx, observer, span, call, false, start, response.FinishReason, response.Usage)
				return response, nil
			}
		},
		Stream: func(next StreamFunc) StreamFunc {
			return func(ctx context.Context, call Call) (*ai.ChatStream, error) {
				ctx, span, start := startObserved(ctx, observer, observability.SpanClientStream, call, true)

				stream, err := next(ctx, call)
				if err != nil {
					recordFailure(ctx, observer, span, call, true, start, err)
					return nil, err
				}
				span.AddEvent(observability.EventStreamStart)

				return WrapStream(stream, func(end *ai.StreamEnd, err error) {
					span.AddEvent(observability.EventStreamEnd)
					switch {
					case err != nil:
						recordFailure(ctx, observer, span, call, true, start, err)
					case end == nil:
						span.SetStatus(observability.StatusOK, "abandoned")
						span.End()
						observer.Info(ctx, "llm stream abandoned", append(callAttrs(call, true),
							observability.Duration(observability.AttrDuration, time.Since(start)))...)
					default:
						recordSuccess(ctx, observer, span, call, true, start, end.FinishReason, end.Usage)
					}
				}), nil
			}
		},
	}
}

func callAttrs(call Call, stream bool) []observability.Attribute {
	return []observability.Attribute{
		observability.String(observability.AttrLLMProvider, call.Target.Model.Kind.String()),
		observability.String(observability.AttrLLMModel, call.Target.Model.Name),
		observability.Bool(observability.AttrLLMStream, stream),
	}
}

func startObserved(ctx context.Context, observer observability.Provider, name string, call Call, stream bool) (context.Context, observability.Span, time.Time) {
	attrs := callAttrs(call, stream)
	ctx, span := observer.StartSpan(ctx, name, append(attrs,
		observability.String(observability.AttrLLMEndpoint, call.Target.Endpoint.BaseURL),
		observability.Int(observability.AttrRequestMessagesCount, len(call.Request.Messages)),
		observability.Int(observability.AttrRequestToolsCount, len(call.Request.Tools)),
	)...)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, observer)

	observer.Debug(ctx, "llm request", attrs...)
	return ctx, span, time.Now()
}

func recordFailure(ctx context.Context, observer observability.Provider, span observability.Span, call Call, stream bool, start time.Time, err error) {
	elapsed := time.Since(start)
	class := string(ai.Classify(err))

	span.RecordError(err)
	span.SetAttributes(observability.String(observability.AttrErrorType, class))
	span.SetStatus(observability.StatusError, class)
	span.End()

	metricAttrs := append(callAttrs(call, stream),
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrErrorType, class),
	)
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1, metricAttrs...)
	observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(), metricAttrs...)

	observer.Error(ctx, "llm request failed", append(metricAttrs,
		observability.Error(err),
		observability.Duration(observability.AttrDuration, elapsed),
	)...)
}

func recordSuccess(ctx context.Context, observer observability.Provider, span observability.Span, call Call, stream bool, start time.Time, finishReason string, usage *ai.Usage) {
	elapsed := time.Since(start)

	metricAttrs := append(callAttrs(call, stream), observability.String(observability.AttrStatus, "success"))
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1, metricAttrs...)
	observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(), metricAttrs...)

	logAttrs := append(callAttrs(call, stream),
		observability.String(observability.AttrLLMFinishReason, finishReason),
		observability.Duration(observability.AttrDuration, elapsed),
	)

	if usage != nil {
		tokenAttrs := callAttrs(call, stream)
		observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(usage.Total()), tokenAttrs...)
		observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(usage.Prompt()), tokenAttrs...)
		observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(usage.Completion()), tokenAttrs...)

		usageAttrs := []observability.Attribute{
			observability.Int(observability.AttrLLMTokensPrompt, usage.Prompt()),
			observability.Int(observability.AttrLLMTokensCompletion, usage.Completion()),
			observability.Int(observability.AttrLLMTokensReasoning, usage.Reasoning()),
			observability.Int(observability.AttrLLMTokensTotal, usage.Total()),
		}
		span.SetAttributes(usageAttrs...)
		logAttrs = append(logAttrs, usageAttrs...)
	}

	observer.Info(ctx, "llm request completed", logAttrs...)

	span.SetAttributes(observability.String(observability.AttrLLMFinishReason, finishReason))
	span.SetStatus(observability.StatusOK, "success")
	span.End()
}
