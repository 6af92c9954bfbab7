package overview

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

type contextKey struct{}

// TokenTotals are token counts summed over calls. Unreported counts add 0.
type TokenTotals struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Reasoning  int `json:"reasoning"`
	Cached     int `json:"cached"`
	Total      int `json:"total"`
}

// Overview aggregates the calls made under one context. It is safe for
// concurrent use; read it through Snapshot.
type Overview struct {
	mu sync.Mutex

	startedAt    time.Time
	requests     int
	failures     map[ai.ErrorClass]int
	models       map[string]int
	toolCalls    map[string]int
	tokens       TokenTotals
	lastResponse *ai.ChatResponse
}

// Snapshot is a point-in-time copy of an Overview.
type Snapshot struct {
	Requests     int                   `json:"requests"`
	Failures     map[ai.ErrorClass]int `json:"failures,omitempty"`
	Models       map[string]int        `json:"models,omitempty"`
	ToolCalls    map[string]int        `json:"tool_calls,omitempty"`
	Tokens       TokenTotals           `json:"tokens"`
	Elapsed      time.Duration         `json:"elapsed"`
	LastResponse *ai.ChatResponse      `json:"last_response,omitempty"`
}

// New returns an empty Overview; Elapsed is measured from now.
func New() *Overview {
	return &Overview{
		startedAt: time.Now(),
		failures:  make(map[ai.ErrorClass]int),
		models:    make(map[string]int),
		toolCalls: make(map[string]int),
	}
}

// OverviewFromContext retrieves the Overview from the context, creating one if
// it does not already exist. The context pointer is updated in-place when a new
// Overview is created so callers see the enriched context.
func OverviewFromContext(ctx *context.Context) *Overview {
	if overview := FromContext(*ctx); overview != nil {
		return overview
	}
	overview := New()
	*ctx = overview.ToContext(*ctx)
	return overview
}

// FromContext returns the Overview bound to ctx, or nil.
func FromContext(ctx context.Context) *Overview {
	overview, _ := ctx.Value(contextKey{}).(*Overview)
	return overview
}

// ToContext stores the Overview in the given context and returns the enriched context.
func (o *Overview) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, o)
}

// AddResponse records a successful call.
func (o *Overview) AddResponse(response *ai.ChatResponse) {
	if response == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests++
	o.models[response.Model.String()]++
	o.includeUsage(response.Usage)
	for _, call := range response.ToolCalls {
		o.toolCalls[call.Function.Name]++
	}
	o.lastResponse = response
}

// AddStreamEnd records a stream that reached its End event.
func (o *Overview) AddStreamEnd(end *ai.StreamEnd) {
	if end == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests++
	o.models[end.Model.String()]++
	o.includeUsage(end.Usage)
	for _, call := range end.ToolCalls {
		o.toolCalls[call.Function.Name]++
	}
}

// AddFailure records a failed call under its error class.
func (o *Overview) AddFailure(model ai.ModelIden, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests++
	o.models[model.String()]++
	o.failures[ai.Classify(err)]++
}

// includeUsage accumulates token usage; o.mu must be held.
func (o *Overview) includeUsage(usage *ai.Usage) {
	if usage == nil {
		return
	}
	o.tokens.Prompt += usage.Prompt()
	o.tokens.Completion += usage.Completion()
	o.tokens.Reasoning += usage.Reasoning()
	o.tokens.Total += usage.Total()
	if details := usage.PromptTokensDetails; details != nil && details.CachedTokens != nil {
		o.tokens.Cached += *details.CachedTokens
	}
}

// Snapshot returns a copy of the current totals.
func (o *Overview) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Snapshot{
		Requests:     o.requests,
		Failures:     maps.Clone(o.failures),
		Models:       maps.Clone(o.models),
		ToolCalls:    maps.Clone(o.toolCalls),
		Tokens:       o.tokens,
		Elapsed:      time.Since(o.startedAt),
		LastResponse: o.lastResponse,
	}
}

// NewMiddleware records every call whose context carries an Overview. Calls
// without one pass through untouched. An abandoned stream is not recorded.
func NewMiddleware() client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatResponse, error) {
				response, err := next(ctx, call)
				if overview := FromContext(ctx); overview != nil {
					if err != nil {
						overview.AddFailure(call.Target.Model, err)
					} else {
						overview.AddResponse(response)
					}
				}
				return response, err
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, call client.Call) (*ai.ChatStream, error) {
				overview := FromContext(ctx)
				stream, err := next(ctx, call)
				if overview == nil {
					return stream, err
				}
				if err != nil {
					overview.AddFailure(call.Target.Model, err)
					return nil, err
				}
				return client.WrapStream(stream, func(end *ai.StreamEnd, err error) {
					switch {
					case err != nil:
						overview.AddFailure(call.Target.Model, err)
					case end != nil:
						overview.AddStreamEnd(end)
					}
				}), nil
			}
		},
	}
}
