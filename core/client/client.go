package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leofalp/unillm/core/resolver"
	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
)

// Client dispatches chat requests. Build it with New.
type Client struct {
	httpClient *http.Client
	resolver   resolver.Chain
	defaults   ai.ChatOptions
	logger     *slog.Logger
	adapters   map[ai.AdapterKind]ai.Adapter
	observer   observability.Provider

	middlewares []MiddlewareConfig
	send        SendFunc
	stream      StreamFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client shared by every call. It defaults to a
// client without timeout; deadlines come from the call context.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithResolver replaces the whole resolver chain.
func WithResolver(chain resolver.Chain) Option {
	return func(c *Client) { c.resolver = chain }
}

// WithKindResolver sets the first resolver stage.
func WithKindResolver(fn resolver.AdapterKindResolver) Option {
	return func(c *Client) { c.resolver.KindResolver = fn }
}

// WithAuthResolver sets the credential stage.
func WithAuthResolver(fn resolver.AuthResolver) Option {
	return func(c *Client) { c.resolver.AuthResolver = fn }
}

// WithModelMapper sets the model mapping stage.
func WithModelMapper(fn resolver.ModelMapper) Option {
	return func(c *Client) { c.resolver.ModelMapper = fn }
}

// WithTargetResolver sets the final resolver stage.
func WithTargetResolver(fn resolver.ServiceTargetResolver) Option {
	return func(c *Client) { c.resolver.TargetResolver = fn }
}

// WithDefaultOptions sets options applied to every call. Per-call options
// take precedence field by field.
func WithDefaultOptions(options ai.ChatOptions) Option {
	return func(c *Client) { c.defaults = options }
}

// WithLogger sets the logger used for dropped options and skipped stream
// frames. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver enables spans, metrics and log events for every call. The
// observability middleware is installed as the outermost layer.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) { c.observer = observer }
}

// WithMiddleware appends middlewares. The first one given is the outermost.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, middlewares...) }
}

// WithAdapter replaces the adapter serving adapter.Kind().
func WithAdapter(adapter ai.Adapter) Option {
	return func(c *Client) { c.adapters[adapter.Kind()] = adapter }
}

// New builds a Client. It fails when a middleware has no Send function.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{},
		adapters:   defaultAdapters(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}

	middlewares := c.middlewares
	if c.observer != nil {
		middlewares = append([]MiddlewareConfig{NewObservabilityMiddleware(c.observer)}, middlewares...)
	}
	for i, middleware := range middlewares {
		if middleware.Send == nil {
			return nil, fmt.Errorf("middleware at index %d has a nil Send function", i)
		}
	}

	c.send = buildSendChain(c.doSend, middlewares)
	c.stream = buildStreamChain(c.doStream, middlewares)
	return c, nil
}

// ResolveTarget runs the resolver chain for model without sending anything.
func (c *Client) ResolveTarget(ctx context.Context, model string) (ai.ServiceTarget, error) {
	return c.resolver.Resolve(ctx, model)
}

// Chat resolves model and sends request. Options are merged over the client
// defaults in order.
func (c *Client) Chat(ctx context.Context, model string, request ai.ChatRequest, opts ...ai.ChatOptions) (*ai.ChatResponse, error) {
	target, err := c.ResolveTarget(ctx, model)
	if err != nil {
		return nil, err
	}
	return c.ChatTarget(ctx, target, request, opts...)
}

// ChatTarget sends request to an already resolved target. Credentials still
// deferred to the environment, as in ai.DefaultServiceTarget, are read
// through the resolver chain's lookup first.
func (c *Client) ChatTarget(ctx context.Context, target ai.ServiceTarget, request ai.ChatRequest, opts ...ai.ChatOptions) (*ai.ChatResponse, error) {
	target, err := c.materialize(target)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, c.newCall(target, request, opts))
}

// ChatStream resolves model and starts a streaming call.
func (c *Client) ChatStream(ctx context.Context, model string, request ai.ChatRequest, opts ...ai.ChatOptions) (*ai.ChatStream, error) {
	target, err := c.ResolveTarget(ctx, model)
	if err != nil {
		return nil, err
	}
	return c.ChatStreamTarget(ctx, target, request, opts...)
}

// ChatStreamTarget starts a streaming call to an already resolved target.
// Errors before the first byte are returned directly; later ones end the
// stream.
func (c *Client) ChatStreamTarget(ctx context.Context, target ai.ServiceTarget, request ai.ChatRequest, opts ...ai.ChatOptions) (*ai.ChatStream, error) {
	target, err := c.materialize(target)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, c.newCall(target, request, opts))
}

// materialize resolves AuthFromEnv on a caller-built target. Nothing is sent
// when the variable is missing.
func (c *Client) materialize(target ai.ServiceTarget) (ai.ServiceTarget, error) {
	auth, err := target.Auth.Resolve(c.resolver.Lookup)
	if err != nil {
		return target, &ai.ResolveError{Stage: ai.StageAuthMaterial, Model: target.Model.String(), Err: err}
	}
	target.Auth = auth
	return target, nil
}

func (c *Client) newCall(target ai.ServiceTarget, request ai.ChatRequest, opts []ai.ChatOptions) Call {
	options := c.defaults
	for _, override := range opts {
		options = options.Merge(override)
	}
	return Call{Target: target, Request: request, Options: options}
}

/*
	EXECUTOR
*/

func (c *Client) adapterFor(target ai.ServiceTarget) (ai.Adapter, error) {
	adapter, ok := c.adapters[target.Model.Kind]
	if !ok {
		return nil, &ai.ResolveError{Stage: ai.StageTarget, Model: target.Model.String(), Err: ai.ErrUnknownAdapterKind}
	}
	return adapter, nil
}

// doSend is the innermost SendFunc: build, post, parse.
func (c *Client) doSend(ctx context.Context, call Call) (*ai.ChatResponse, error) {
	adapter, err := c.adapterFor(call.Target)
	if err != nil {
		return nil, err
	}
	webRequest, err := adapter.BuildRequest(call.Target, call.Request, call.Options, false)
	if err != nil {
		return nil, fmt.Errorf("error building %s request: %w", call.Target.Model.Kind, err)
	}
	c.logDropped(ctx, call.Target, webRequest.Dropped)

	response, err := utils.DoPost(ctx, c.httpClient, toPostRequest(webRequest, false))
	if err != nil {
		return nil, mapHTTPError(ctx, call.Target.Model, err)
	}
	body, err := utils.ReadBody(response.Body)
	if err != nil {
		return nil, mapHTTPError(ctx, call.Target.Model, err)
	}

	return adapter.ParseResponse(call.Target, body, call.Options)
}

// doStream is the innermost StreamFunc: build, post, hand the body to the
// demultiplexer.
func (c *Client) doStream(ctx context.Context, call Call) (*ai.ChatStream, error) {
	adapter, err := c.adapterFor(call.Target)
	if err != nil {
		return nil, err
	}
	webRequest, err := adapter.BuildRequest(call.Target, call.Request, call.Options, true)
	if err != nil {
		return nil, fmt.Errorf("error building %s request: %w", call.Target.Model.Kind, err)
	}
	c.logDropped(ctx, call.Target, webRequest.Dropped)

	decoder := adapter.NewStreamDecoder(call.Target, call.Options)
	response, err := utils.DoPost(ctx, c.httpClient, toPostRequest(webRequest, decoder.Framing() == ai.FramingSSE))
	if err != nil {
		return nil, mapHTTPError(ctx, call.Target.Model, err)
	}

	return ai.NewDemuxStream(ctx, response.Body, decoder, call.Target.Model, call.Options, c.logger), nil
}

func (c *Client) logDropped(ctx context.Context, target ai.ServiceTarget, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	c.logger.WarnContext(ctx, "options not supported by provider were dropped",
		slog.String("provider", target.Model.Kind.String()),
		slog.String("model", target.Model.Name),
		slog.Any("options", dropped),
	)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.String(observability.AttrLLMDropped, fmt.Sprint(dropped)))
	}
}

func toPostRequest(webRequest *ai.WebRequest, sse bool) utils.PostRequest {
	headers := make([]utils.HeaderOption, 0, len(webRequest.Headers))
	for _, header := range webRequest.Headers {
		headers = append(headers, utils.HeaderOption{Key: header.Name, Value: header.Value})
	}
	return utils.PostRequest{URL: webRequest.URL, Headers: headers, Body: webRequest.Body, Stream: sse}
}

// mapHTTPError turns a DoPost or ReadBody failure into the error taxonomy.
func mapHTTPError(ctx context.Context, model ai.ModelIden, err error) error {
	var statusErr *utils.HTTPStatusError
	if errors.As(err, &statusErr) {
		return &ai.ProviderError{
			Model:      model,
			StatusCode: statusErr.StatusCode,
			Body:       string(statusErr.Body),
			RequestID:  statusErr.RequestID,
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ai.ContextError(model, ctxErr)
	}
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ai.TimeoutError{Model: model, Err: err}
	}
	return &ai.TransportError{Model: model, Err: err}
}
