package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestProviderError_MessageAndCode(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		wantCode    string
	}{
		{
			name:        "openai shape",
			body:        `{"error":{"message":"Invalid API key","type":"invalid_request_error","code":"invalid_api_key"}}`,
			wantMessage: "Invalid API key",
			wantCode:    "invalid_request_error",
		},
		{
			name:        "anthropic shape",
			body:        `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
			wantMessage: "Overloaded",
			wantCode:    "overloaded_error",
		},
		{
			name:        "gemini shape",
			body:        `{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantMessage: "Resource exhausted",
			wantCode:    "429",
		},
		{
			name:        "ollama shape",
			body:        `{"error":"model 'llama9' not found"}`,
			wantMessage: "model 'llama9' not found",
		},
		{
			name: "not json",
			body: "<html>Bad Gateway</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ProviderError{StatusCode: 400, Body: tt.body}
			if got := err.Message(); got != tt.wantMessage {
				t.Errorf("Message() = %q, want %q", got, tt.wantMessage)
			}
			if got := err.Code(); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestProviderError_ErrorFallsBackToBody(t *testing.T) {
	err := &ProviderError{Model: ModelIden{Kind: KindGroq, Name: "llama3-8b-8192"}, StatusCode: 502, Body: "<html>Bad Gateway</html>"}
	if !strings.Contains(err.Error(), "Bad Gateway") || !strings.Contains(err.Error(), "502") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	model := ModelIden{Kind: KindOpenAI, Name: "gpt-4o"}

	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassNone},
		{"resolve", &ResolveError{Stage: StageAuthMaterial, Err: &APIKeyEnvNotFoundError{EnvName: "OPENAI_API_KEY"}}, ClassResolution},
		{"401", &ProviderError{Model: model, StatusCode: 401}, ClassAuth},
		{"400", &ProviderError{Model: model, StatusCode: 400}, ClassBadRequest},
		{"429", &ProviderError{Model: model, StatusCode: 429}, ClassRateLimit},
		{"529", &ProviderError{Model: model, StatusCode: 529}, ClassOutage},
		{"503 wrapped", fmt.Errorf("call failed: %w", &ProviderError{Model: model, StatusCode: 503}), ClassOutage},
		{"in-stream overloaded", &ProviderError{Model: model, Body: `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`}, ClassOutage},
		{"in-stream rate limit", &ProviderError{Model: model, Body: `{"error":{"type":"rate_limit_error"}}`}, ClassRateLimit},
		{"timeout", &TimeoutError{Model: model, Err: context.DeadlineExceeded}, ClassTimeout},
		{"raw deadline", context.DeadlineExceeded, ClassTimeout},
		{"canceled", fmt.Errorf("stream: %w", context.Canceled), ClassCanceled},
		{"transport", &TransportError{Model: model, Err: errors.New("connection reset")}, ClassTransport},
		{"decode", &DecodeError{Model: model, Fragment: "{", Err: errors.New("unexpected end")}, ClassDecode},
		{"other", errors.New("boom"), ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeoutError_IsErrTimeout(t *testing.T) {
	err := ContextError(ModelIden{Kind: KindOllama, Name: "llama3"}, context.DeadlineExceeded)
	if !errors.Is(err, ErrTimeout) {
		t.Error("expected errors.Is(err, ErrTimeout)")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the deadline error to be unwrapped")
	}
	if errors.Is(ContextError(ModelIden{}, context.Canceled), ErrTimeout) {
		t.Error("cancellation must not be a timeout")
	}
}

func TestErrorClass_Retryable(t *testing.T) {
	for class, want := range map[ErrorClass]bool{
		ClassRateLimit: true, ClassOutage: true, ClassAuth: false, ClassTimeout: false, ClassDecode: false,
	} {
		if class.Retryable() != want {
			t.Errorf("%s.Retryable() = %v, want %v", class, !want, want)
		}
	}
}

func TestDecodeError_TruncatesFragment(t *testing.T) {
	err := &DecodeError{Fragment: strings.Repeat("x", 10_000), Err: errors.New("bad")}
	if len(err.Error()) > 1000 {
		t.Errorf("expected truncated message, got %d bytes", len(err.Error()))
	}
}
