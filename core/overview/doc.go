// Package overview tracks what a group of calls consumed: request count,
// failures by error class, token totals, tool calls requested by the model
// and calls per model.
//
// Bind an [Overview] to a context with [Overview.ToContext] (or
// [OverviewFromContext]) and install [NewMiddleware] on the client; every
// call made with that context is recorded. Streams are recorded when they
// end.
package overview
