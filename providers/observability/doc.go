// Package observability defines the tracing, metrics and logging contract the
// unillm client reports through.
//
// [Provider] composes [Tracer], [Metrics] and [Logger]. The client attaches
// the active Provider and [Span] to the call context with
// [ContextWithObserver] and [ContextWithSpan] so lower layers (the HTTP
// helper, stream wrappers) can add events without being handed the observer.
//
// Attribute keys, span names and metric names live in semconv.go. Backends
// are in the slogobs (log lines) and promobs (Prometheus) subpackages.
package observability
