// Package cohere implements ai.Adapter for Cohere's v2 Chat API.
//
// Requests go to /chat with a bearer token. Streams use typed SSE events
// (message-start, content-delta, tool-call-start, tool-call-delta,
// message-end) and end at message-end; usage is read from
// delta.usage.tokens on that final event.
package cohere
