package client

import (
	"context"

	"github.com/leofalp/unillm/providers/ai"
)

// Call is one request travelling through the middleware chain: the resolved
// target, the request and the merged options.
type Call struct {
	Target  ai.ServiceTarget
	Request ai.ChatRequest
	Options ai.ChatOptions
}

// SendFunc performs a non-streaming call.
type SendFunc func(ctx context.Context, call Call) (*ai.ChatResponse, error)

// StreamFunc starts a streaming call.
type StreamFunc func(ctx context.Context, call Call) (*ai.ChatStream, error)

// Middleware wraps a SendFunc. The first middleware given to the client is
// the outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware wraps a StreamFunc and may wrap the returned stream to
// observe its events.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its optional streaming
// counterpart. Send is required. A nil Stream means streaming calls skip
// this entry.
type MiddlewareConfig struct {
	Send   Middleware
	Stream StreamMiddleware
}

// buildSendChain applies middlewares in reverse so middlewares[0] runs first.
func buildSendChain(base SendFunc, middlewares []MiddlewareConfig) SendFunc {
	chain := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}
	return chain
}

// buildStreamChain is buildSendChain for streams; entries without a Stream
// function are skipped.
func buildStreamChain(base StreamFunc, middlewares []MiddlewareConfig) StreamFunc {
	chain := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}

// WrapStream returns a stream yielding the events of stream unchanged and
// calling done exactly once: with the End payload when the stream ends, or
// with nil when the caller abandons it first.
func WrapStream(stream *ai.ChatStream, done func(end *ai.StreamEnd, err error)) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		var end *ai.StreamEnd
		var lastErr error
		finished := false
		defer func() {
			if !finished {
				done(nil, nil)
			}
		}()

		for event, err := range stream.Iter() {
			if event.End != nil {
				end = event.End
			}
			if err != nil {
				lastErr = err
			}
			if event.Type == ai.StreamEventEnd || err != nil {
				finished = true
				done(end, lastErr)
				yield(event, err)
				return
			}
			if !yield(event, nil) {
				return
			}
		}
		finished = true
		done(end, lastErr)
	})
}
