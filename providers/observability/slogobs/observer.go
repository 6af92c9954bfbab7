package slogobs

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/leofalp/unillm/providers/observability"
)

// Observer implements observability.Provider with a slog.Logger.
type Observer struct {
	logger *slog.Logger

	mu       sync.Mutex
	counters map[string]*counter
}

var _ observability.Provider = (*Observer)(nil)

// New returns an Observer. Without options the format and level come from the
// environment and records go to stderr.
func New(opts ...Option) *Observer {
	cfg := &config{
		format: FormatFromEnv(),
		level:  LevelFromEnv(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Observer{
		logger:   cfg.buildLogger(),
		counters: make(map[string]*counter),
	}
}

// Logger returns the underlying logger so the client can share it.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// CounterValue returns the running total of a counter, 0 if it was never used.
func (o *Observer) CounterValue(name string) int64 {
	o.mu.Lock()
	c, ok := o.counters[name]
	o.mu.Unlock()
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// --- TRACING ---

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &span{
		name:   name,
		start:  time.Now(),
		logger: o.logger,
		ctx:    context.WithoutCancel(ctx),
		attrs:  attrs,
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span started", append(spanAttrs(name), toSlog(attrs)...)...)
	return observability.ContextWithSpan(ctx, span), span
}

type span struct {
	name   string
	start  time.Time
	logger *slog.Logger
	ctx    context.Context

	mu     sync.Mutex
	attrs  []observability.Attribute
	status observability.StatusCode
	ended  bool
}

// End logs the span with its duration and collected attributes. Only the
// first call logs.
func (s *span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	level := slog.LevelDebug
	if s.status == observability.StatusError {
		level = slog.LevelWarn
	}
	logAttrs := append(spanAttrs(s.name), slog.Duration(observability.AttrDuration, time.Since(s.start)))
	s.logger.LogAttrs(s.ctx, level, "span ended", append(logAttrs, toSlog(s.attrs)...)...)
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, statusName(code)))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Error(err))
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := append(spanAttrs(s.name), slog.String("event", name))
	s.logger.LogAttrs(s.ctx, slog.LevelDebug, "span event", append(logAttrs, toSlog(attrs)...)...)
}

func spanAttrs(name string) []slog.Attr {
	return []slog.Attr{slog.String("span", name)}
}

func statusName(code observability.StatusCode) string {
	switch code {
	case observability.StatusOK:
		return "ok"
	case observability.StatusError:
		return "error"
	default:
		return "unset"
	}
}

// --- METRICS ---

func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.counters[name]
	if !ok {
		c = &counter{name: name, logger: o.logger}
		o.counters[name] = c
	}
	return c
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return histogram{name: name, logger: o.logger}
}

type counter struct {
	name   string
	logger *slog.Logger

	mu    sync.Mutex
	value int64
}

func (c *counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	total := c.value
	c.mu.Unlock()

	logAttrs := []slog.Attr{slog.String("metric", c.name), slog.Int64("delta", value), slog.Int64("value", total)}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "counter", append(logAttrs, toSlog(attrs)...)...)
}

type histogram struct {
	name   string
	logger *slog.Logger
}

func (h histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	logAttrs := []slog.Attr{slog.String("metric", h.name), slog.Float64("value", value)}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "histogram", append(logAttrs, toSlog(attrs)...)...)
}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, LevelTrace, msg, toSlog(attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlog(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlog(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlog(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlog(attrs)...)
}

func toSlog(attrs []observability.Attribute) []slog.Attr {
	result := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		result = append(result, slog.Any(attr.Key, attr.Value))
	}
	return result
}
