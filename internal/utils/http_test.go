package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ---- DoPost tests -----------------------------------------------------------

// TestDoPost_Success_ReturnsOpenBody verifies that a 200 response leaves the
// body open for the caller.
func TestDoPost_Success_ReturnsOpenBody(t *testing.T) {
	var capturedContentType, capturedAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedContentType = r.Header.Get("Content-Type")
		capturedAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":42}`)
	}))
	defer server.Close()

	response, err := DoPost(context.Background(), server.Client(), PostRequest{URL: server.URL, Body: []byte(`{}`), Stream: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	body, err := ReadBody(response.Body)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if string(body) != `{"value":42}` {
		t.Errorf("unexpected body %q", body)
	}
	if capturedContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", capturedContentType)
	}
	if capturedAccept != "text/event-stream" {
		t.Errorf("expected SSE accept header for stream requests, got %q", capturedAccept)
	}
}

// TestDoPost_Non2xxStatus verifies that a non-2xx status is returned as an
// *HTTPStatusError carrying the verbatim body and request id.
func TestDoPost_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-request-id", "req_123")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	}))
	defer server.Close()

	_, err := DoPost(context.Background(), server.Client(), PostRequest{URL: server.URL})
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", statusErr.StatusCode)
	}
	if string(statusErr.Body) != `{"error":{"message":"slow down"}}` {
		t.Errorf("expected verbatim body, got %q", statusErr.Body)
	}
	if statusErr.RequestID != "req_123" {
		t.Errorf("expected request id req_123, got %q", statusErr.RequestID)
	}
}

// TestDoPost_CustomHeaders verifies that headers are sent in addition to the
// defaults and may override them.
func TestDoPost_CustomHeaders(t *testing.T) {
	var capturedKey, capturedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedKey = r.Header.Get("x-api-key")
		capturedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	response, err := DoPost(context.Background(), server.Client(), PostRequest{
		URL: server.URL,
		Headers: []HeaderOption{
			{Key: "x-api-key", Value: "secret"},
			{Key: "Authorization", Value: "Bearer abc"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	CloseWithLog(response.Body)

	if capturedKey != "secret" || capturedAuth != "Bearer abc" {
		t.Errorf("headers not forwarded: x-api-key=%q Authorization=%q", capturedKey, capturedAuth)
	}
}

// TestDoPost_RequestCreateError verifies that an invalid URL is reported.
func TestDoPost_RequestCreateError(t *testing.T) {
	if _, err := DoPost(context.Background(), nil, PostRequest{URL: " bad url"}); err == nil {
		t.Fatal("expected request creation error, got nil")
	}
}

// TestDoPost_DeadlineExceeded verifies that a caller deadline surfaces as
// context.DeadlineExceeded.
func TestDoPost_DeadlineExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := DoPost(ctx, server.Client(), PostRequest{URL: server.URL})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

// TestDoPost_NetworkError verifies that an unreachable server is reported.
func TestDoPost_NetworkError(t *testing.T) {
	if _, err := DoPost(context.Background(), nil, PostRequest{URL: "http://127.0.0.1:1"}); err == nil {
		t.Fatal("expected network error, got nil")
	}
}

// ---- CloseWithLog tests -----------------------------------------------------

// errCloser is a mock io.Closer that always returns the configured error.
type errCloser struct {
	closeErr error
}

func (ec *errCloser) Close() error {
	return ec.closeErr
}

// TestCloseWithLog_ErrorPath verifies that CloseWithLog does not panic when
// the underlying closer returns an error.
func TestCloseWithLog_ErrorPath(t *testing.T) {
	CloseWithLog(&errCloser{closeErr: errors.New("close error")})
}

// TestReadBody_Closes verifies that ReadBody closes the body after reading.
func TestReadBody_Closes(t *testing.T) {
	body := &trackingBody{Reader: io.LimitReader(zeroReader{}, 4)}
	data, err := ReadBody(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(data))
	}
	if !body.closed {
		t.Error("expected body to be closed")
	}
}

func TestReadBody_ExceedsLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"below limit", 15, false},
		{"at limit", 16, false},
		{"above limit", 17, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := &trackingBody{Reader: io.LimitReader(zeroReader{}, tt.size)}
			data, err := readBodyLimit(body, 16)
			if tt.wantErr {
				if !errors.Is(err, ErrBodyTooLarge) || data != nil {
					t.Errorf("expected ErrBodyTooLarge, got %d bytes, %v", len(data), err)
				}
			} else if err != nil || int64(len(data)) != tt.size {
				t.Errorf("expected %d bytes, got %d, %v", tt.size, len(data), err)
			}
			if !body.closed {
				t.Error("expected body to be closed")
			}
		})
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}
