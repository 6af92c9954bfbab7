package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

// sendSequence answers with the configured errors in order, then succeeds.
type sendSequence struct {
	errors []error
	calls  int
}

func (s *sendSequence) next(_ context.Context, _ client.Call) (*ai.ChatResponse, error) {
	index := s.calls
	s.calls++
	if index < len(s.errors) && s.errors[index] != nil {
		return nil, s.errors[index]
	}
	return &ai.ChatResponse{Content: "ok", FinishReason: ai.FinishReasonStop}, nil
}

func statusError(status int) error {
	return &ai.ProviderError{Model: testModel, StatusCode: status, Body: `{"error":{"message":"nope"}}`}
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Logger:         slog.New(slog.DiscardHandler),
	}
}

func TestRetryMiddleware_SuccessOnFirstTry(t *testing.T) {
	sequence := &sendSequence{}
	response, err := NewRetryMiddleware(fastRetry(3)).Send(sequence.next)(context.Background(), testCall())
	if err != nil || response.Content != "ok" {
		t.Fatalf("unexpected result %+v, %v", response, err)
	}
	if sequence.calls != 1 {
		t.Errorf("expected 1 call, got %d", sequence.calls)
	}
}

func TestRetryMiddleware_RetryThenSuccess(t *testing.T) {
	sequence := &sendSequence{errors: []error{statusError(http.StatusTooManyRequests), statusError(529)}}

	response, err := NewRetryMiddleware(fastRetry(3)).Send(sequence.next)(context.Background(), testCall())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "ok" || sequence.calls != 3 {
		t.Errorf("expected success on the third call, got %d calls", sequence.calls)
	}
}

func TestRetryMiddleware_ExhaustsRetries(t *testing.T) {
	sequence := &sendSequence{errors: []error{
		statusError(http.StatusServiceUnavailable),
		statusError(http.StatusServiceUnavailable),
		statusError(http.StatusServiceUnavailable),
	}}

	_, err := NewRetryMiddleware(fastRetry(2)).Send(sequence.next)(context.Background(), testCall())
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) || providerErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected the last provider error to be wrapped, got %v", err)
	}
	if sequence.calls != 3 {
		t.Errorf("expected 3 calls, got %d", sequence.calls)
	}
}

func TestRetryMiddleware_NonRetryableClasses(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bad request", statusError(http.StatusBadRequest)},
		{"auth", statusError(http.StatusUnauthorized)},
		{"resolution", &ai.ResolveError{Stage: ai.StageAuthMaterial, Err: &ai.APIKeyEnvNotFoundError{EnvName: "ANTHROPIC_API_KEY"}}},
		{"decode", &ai.DecodeError{Model: testModel, Err: ai.ErrInvalidJSON}},
		{"timeout", &ai.TimeoutError{Model: testModel, Err: context.DeadlineExceeded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sequence := &sendSequence{errors: []error{tt.err}}
			_, err := NewRetryMiddleware(fastRetry(3)).Send(sequence.next)(context.Background(), testCall())
			if !errors.Is(err, tt.err) {
				t.Errorf("expected the original error, got %v", err)
			}
			if sequence.calls != 1 {
				t.Errorf("expected no retry, got %d calls", sequence.calls)
			}
		})
	}
}

func TestRetryMiddleware_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := fastRetry(3)
	config.InitialBackoff = time.Hour
	config.MaxBackoff = time.Hour

	sequence := &sendSequence{errors: []error{statusError(http.StatusTooManyRequests)}}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewRetryMiddleware(config).Send(sequence.next)(ctx, testCall())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if sequence.calls != 1 {
		t.Errorf("expected 1 call, got %d", sequence.calls)
	}
}

func TestRetryMiddleware_CustomRetryableFunc(t *testing.T) {
	custom := errors.New("custom transient")
	config := fastRetry(1)
	config.RetryableFunc = func(err error) bool { return errors.Is(err, custom) }

	sequence := &sendSequence{errors: []error{custom}}
	if _, err := NewRetryMiddleware(config).Send(sequence.next)(context.Background(), testCall()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sequence.calls != 2 {
		t.Errorf("expected 2 calls, got %d", sequence.calls)
	}
}

func TestRetryMiddleware_LogsEachRetry(t *testing.T) {
	logger, buf := jsonLogger()
	config := fastRetry(2)
	config.Logger = logger

	sequence := &sendSequence{errors: []error{statusError(http.StatusTooManyRequests)}}
	if _, err := NewRetryMiddleware(config).Send(sequence.next)(context.Background(), testCall()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := logRecords(t, buf)
	if len(records) != 1 || records[0]["error_class"] != "rate_limit" || records[0]["level"] != "WARN" {
		t.Errorf("unexpected retry log %v", records)
	}
}

func TestRetryMiddleware_NeverWrapsStreams(t *testing.T) {
	if NewRetryMiddleware(RetryConfig{}).Stream != nil {
		t.Error("expected no stream middleware")
	}
}

func TestRetryDefaults(t *testing.T) {
	var config RetryConfig
	applyRetryDefaults(&config)

	if config.MaxRetries != 3 || config.InitialBackoff != time.Second || config.MaxBackoff != 30*time.Second {
		t.Errorf("unexpected defaults %+v", config)
	}
	if config.BackoffFactor != 2 || config.JitterFraction != 0.1 || config.RetryableFunc == nil || config.Logger == nil {
		t.Errorf("unexpected defaults %+v", config)
	}
	if !config.RetryableFunc(statusError(http.StatusBadGateway)) || config.RetryableFunc(statusError(http.StatusNotFound)) {
		t.Error("expected the default to follow the error class")
	}
}

func TestComputeBackoff(t *testing.T) {
	config := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2, JitterFraction: 0.1}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second},
	}

	for _, tt := range tests {
		got := computeBackoff(config, tt.attempt)
		maxWithJitter := tt.base + tt.base/10
		if got < tt.base || got > maxWithJitter {
			t.Errorf("attempt %d: backoff %v outside [%v, %v]", tt.attempt, got, tt.base, maxWithJitter)
		}
	}
}
