// Package promobs implements observability.Provider with Prometheus metrics.
//
// Counters and histograms become CounterVec and HistogramVec collectors,
// registered on first use. Metric names have dots replaced by underscores and
// counters gain a _total suffix, so unillm.client.request.count is exported as
// unillm_client_request_count_total. Every collector uses the same label set:
//
//	provider     llm.provider
//	model        llm.model
//	status       status
//	error_class  error.type
//	stream       llm.stream
//
// Other attributes are dropped to keep cardinality bounded. Spans are not
// exported; log calls go to the supplied slog.Logger.
package promobs
