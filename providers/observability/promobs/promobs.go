package promobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/leofalp/unillm/providers/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LLMBuckets covers chat-completion latencies from 100ms to two minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// labels maps attribute keys to label names, in label order.
var labels = []struct{ attr, label string }{
	{observability.AttrLLMProvider, "provider"},
	{observability.AttrLLMModel, "model"},
	{observability.AttrStatus, "status"},
	{observability.AttrErrorType, "error_class"},
	{observability.AttrLLMStream, "stream"},
}

func labelNames() []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.label
	}
	return names
}

// Provider exports metrics to a Prometheus registry.
type Provider struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	logger     *slog.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

var _ observability.Provider = (*Provider)(nil)

// New returns a Provider registering on registry. A nil registry gets a fresh
// one; a nil logger discards log calls.
func New(registry *prometheus.Registry, logger *slog.Logger) *Provider {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{
		registerer: registry,
		gatherer:   registry,
		logger:     logger,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// MetricName converts a dotted name into a Prometheus metric name.
func MetricName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, name)
}

// --- METRICS ---

func (p *Provider) Counter(name string) observability.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.counters[name]; ok {
		return counter{vec}
	}
	metricName := MetricName(name)
	if !strings.HasSuffix(metricName, "_total") {
		metricName += "_total"
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: metricName, Help: name}, labelNames())
	if existing, ok := p.register(metricName, vec).(*prometheus.CounterVec); ok {
		vec = existing
	}
	p.counters[name] = vec
	return counter{vec}
}

func (p *Provider) Histogram(name string) observability.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.histograms[name]; ok {
		return histogram{vec}
	}
	metricName := MetricName(name)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: metricName, Help: name, Buckets: LLMBuckets}, labelNames())
	if existing, ok := p.register(metricName, vec).(*prometheus.HistogramVec); ok {
		vec = existing
	}
	p.histograms[name] = vec
	return histogram{vec}
}

// register adds collector to the registry and returns the collector already
// registered under the same descriptor, if any. Other failures are logged and
// the collector is used unregistered.
func (p *Provider) register(metricName string, collector prometheus.Collector) prometheus.Collector {
	err := p.registerer.Register(collector)
	if err == nil {
		return nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector
	}
	p.logger.Warn("metric registration failed", "metric", metricName, "error", err)
	return nil
}

type counter struct{ vec *prometheus.CounterVec }

func (c counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		return
	}
	c.vec.With(labelValues(attrs)).Add(float64(value))
}

type histogram struct{ vec *prometheus.HistogramVec }

func (h histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.vec.With(labelValues(attrs)).Observe(value)
}

func labelValues(attrs []observability.Attribute) prometheus.Labels {
	values := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		values[l.label] = ""
	}
	for _, attr := range attrs {
		for _, l := range labels {
			if attr.Key == l.attr {
				values[l.label] = fmt.Sprint(attr.Value)
			}
		}
	}
	return values
}

// --- TRACING ---

func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End() {}
func (nopSpan) SetAttributes(...observability.Attribute) {}
func (nopSpan) SetStatus(observability.StatusCode, string) {}
func (nopSpan) RecordError(error) {}
func (nopSpan) AddEvent(string, ...observability.Attribute) {}

// --- LOGGING ---

func (p *Provider) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.log(ctx, slog.LevelDebug-4, msg, attrs)
}

func (p *Provider) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.log(ctx, slog.LevelDebug, msg, attrs)
}

func (p *Provider) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.log(ctx, slog.LevelInfo, msg, attrs)
}

func (p *Provider) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.log(ctx, slog.LevelWarn, msg, attrs)
}

func (p *Provider) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	p.log(ctx, slog.LevelError, msg, attrs)
}

func (p *Provider) log(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	p.logger.LogAttrs(ctx, level, msg, logAttrs...)
}
