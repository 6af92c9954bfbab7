// Package slogobs implements observability.Provider on top of log/slog.
//
// Spans and metric updates become DEBUG records, so a production logger at
// INFO stays quiet while a DEBUG logger shows every request. Counters keep a
// running total that can be read back with [Observer.CounterValue].
//
// Format and level default to the UNILLM_LOG_FORMAT and UNILLM_LOG_LEVEL
// environment variables, falling back to LOG_FORMAT and LOG_LEVEL.
package slogobs
