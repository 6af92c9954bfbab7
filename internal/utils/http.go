package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/unillm/providers/observability"
)

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// ErrBodyTooLarge is returned by ReadBody when a response exceeds
// maxResponseBodySize.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// HeaderOption is a single request header.
type HeaderOption struct {
	Key   string
	Value string
}

// PostRequest describes one outgoing POST.
type PostRequest struct {
	URL     string
	Headers []HeaderOption
	Body    []byte
	Stream  bool // sets Accept: text/event-stream
}

// HTTPStatusError is returned for a non-2xx response. Body is the (size
// capped) response payload, kept verbatim.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(string(e.Body), DefaultMaxStringLength))
}

// requestIDHeaders are checked in order for a provider request id.
var requestIDHeaders = []string{"x-request-id", "request-id", "x-goog-request-id", "cf-ray"}

// DoPost sends request and returns the response with its body still open: the
// caller reads it (fully or as a stream) and closes it. Non-2xx responses are
// read, closed and returned as *HTTPStatusError. Transport failures are
// returned wrapped; callers distinguish deadline errors with errors.Is.
//
// When a span is attached to ctx, request and response events are added to it.
func DoPost(ctx context.Context, client *http.Client, request PostRequest) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, request.URL),
			observability.Int(observability.AttrHTTPRequestBodySize, len(request.Body)),
			observability.Bool("http.stream", request.Stream),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, request.URL, bytes.NewReader(request.Body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if request.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	for _, header := range request.Headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		statusErr := &HTTPStatusError{StatusCode: response.StatusCode, RequestID: requestID(response.Header)}
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			slog.Warn("failed to read error response body", "error", readErr.Error(), "url", request.URL)
		}
		statusErr.Body = errorBody
		return nil, statusErr
	}

	return response, nil
}

// ReadBody reads a complete response body and closes it. A body larger than
// maxResponseBodySize yields ErrBodyTooLarge.
func ReadBody(body io.ReadCloser) ([]byte, error) {
	return readBodyLimit(body, maxResponseBodySize)
}

func readBodyLimit(body io.ReadCloser, limit int64) ([]byte, error) {
	defer CloseWithLog(body)
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// RequestID returns the provider request id of a response, if any.
func RequestID(response *http.Response) string {
	if response == nil {
		return ""
	}
	return requestID(response.Header)
}

func requestID(header http.Header) string {
	for _, name := range requestIDHeaders {
		if value := header.Get(name); value != "" {
			return value
		}
	}
	return ""
}

// CloseWithLog closes c and logs, without returning, any close error.
func CloseWithLog(c io.Closer) {
	if closeErr := c.Close(); closeErr != nil {
		slog.Warn("failed to close response body", "error", closeErr.Error())
	}
}
