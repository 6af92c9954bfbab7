// Package utils holds the low-level helpers shared by the client and the
// adapters: the HTTP POST helper, the SSE and NDJSON line framers used by the
// stream demultiplexer, tolerant JSON decoding for tool arguments, and small
// pointer and string helpers.
package utils
