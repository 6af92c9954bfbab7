package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/tidwall/gjson"
)

// ErrTimeout is matched by errors.Is for every deadline-related failure.
var ErrTimeout = errors.New("request timed out")

// ErrUnknownAdapterKind is returned when a resolver selects a kind that has
// no adapter.
var ErrUnknownAdapterKind = errors.New("unknown adapter kind")

// ErrInvalidJSON is the cause of a DecodeError for a payload that is not JSON.
var ErrInvalidJSON = errors.New("invalid JSON payload")

// ErrToolCallIndex is the cause of a DecodeError for a tool call delta whose
// index is negative or above MaxToolCallIndex.
var ErrToolCallIndex = errors.New("tool call index out of range")

// ResolveStage names the resolver-chain step that failed.
type ResolveStage string

const (
	StageAdapterKind  ResolveStage = "adapter_kind"
	StageAuth         ResolveStage = "auth"
	StageModelMapper  ResolveStage = "model_mapper"
	StageTarget       ResolveStage = "service_target"
	StageAuthMaterial ResolveStage = "auth_material"
)

// ResolveError reports a failure while turning a model name into a
// ServiceTarget. No request is issued when it occurs.
type ResolveError struct {
	Stage ResolveStage
	Model string
	Err   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %q (%s): %v", e.Model, e.Stage, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// APIKeyEnvNotFoundError reports a credential environment variable that is
// missing or empty.
type APIKeyEnvNotFoundError struct {
	EnvName string
}

func (e *APIKeyEnvNotFoundError) Error() string {
	return fmt.Sprintf("api key environment variable %s is not set", e.EnvName)
}

// TransportError wraps a network failure: connection errors, TLS failures or
// a body that broke while being read.
type TransportError struct {
	Model ModelIden
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that the caller deadline expired.
type TimeoutError struct {
	Model ModelIden
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Model, ErrTimeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ProviderError is an error reported by the provider: either a non-2xx HTTP
// response (StatusCode set) or an error event inside a stream (StatusCode 0).
// Body holds the payload verbatim.
type ProviderError struct {
	Model      ModelIden
	StatusCode int
	Body       string
	RequestID  string
}

func (e *ProviderError) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = TruncateFragment(e.Body)
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s stream error: %s", e.Model, msg)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Model, e.StatusCode, msg)
}

// Message extracts the human-readable message from the common provider
// error shapes. It returns "" when none matches.
func (e *ProviderError) Message() string {
	return firstString(e.Body, "error.message", "message", "error", "detail", "errors.0.message")
}

// Code extracts the provider error type or code, e.g. "rate_limit_error".
func (e *ProviderError) Code() string {
	return firstString(e.Body, "error.type", "error.code", "error.status", "type", "code")
}

func firstString(body string, paths ...string) string {
	if !gjson.Valid(body) {
		return ""
	}
	for _, path := range paths {
		result := gjson.Get(body, path)
		switch result.Type {
		case gjson.String:
			if result.Str != "" {
				return result.Str
			}
		case gjson.Number:
			return result.Raw
		}
	}
	return ""
}

// DecodeError reports a provider payload that could not be decoded. Fragment
// holds the offending raw text.
type DecodeError struct {
	Model    ModelIden
	Fragment string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode error: %v (payload: %s)", e.Model, e.Err, TruncateFragment(e.Fragment))
}

func (e *DecodeError) Unwrap() error { return e.Err }

const maxFragmentDisplay = 256

// TruncateFragment shortens a raw payload for display in error messages.
func TruncateFragment(s string) string {
	return utils.TruncateString(strings.TrimSpace(s), maxFragmentDisplay)
}

/*
	CLASSIFICATION
*/

// ErrorClass groups errors by how a caller should react to them.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassResolution ErrorClass = "resolution"
	ClassAuth       ErrorClass = "auth"
	ClassBadRequest ErrorClass = "bad_request"
	ClassRateLimit  ErrorClass = "rate_limit"
	ClassOutage     ErrorClass = "outage"
	ClassTimeout    ErrorClass = "timeout"
	ClassTransport  ErrorClass = "transport"
	ClassDecode     ErrorClass = "decode"
	ClassCanceled   ErrorClass = "canceled"
	ClassUnknown    ErrorClass = "unknown"
)

// Retryable reports whether a later identical call may succeed.
func (c ErrorClass) Retryable() bool {
	return c == ClassRateLimit || c == ClassOutage
}

// Classify maps any error returned by this module to an ErrorClass. A nil
// error yields ClassNone.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return ClassResolution
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return classifyProviderError(providerErr)
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return ClassTransport
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return ClassDecode
	}

	return ClassUnknown
}

func classifyProviderError(err *ProviderError) ErrorClass {
	switch status := err.StatusCode; {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ClassAuth
	case status == http.StatusTooManyRequests:
		return ClassRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ClassTimeout
	case status >= 500:
		return ClassOutage
	case status >= 400:
		return ClassBadRequest
	}

	// in-stream errors carry no status; fall back to the provider code
	code := strings.ToLower(err.Code())
	switch {
	case strings.Contains(code, "rate_limit"), strings.Contains(code, "resource_exhausted"):
		return ClassRateLimit
	case strings.Contains(code, "overloaded"), strings.Contains(code, "unavailable"), code == "api_error", code == "internal":
		return ClassOutage
	case strings.Contains(code, "auth"), strings.Contains(code, "permission"):
		return ClassAuth
	case strings.Contains(code, "invalid"):
		return ClassBadRequest
	}
	return ClassUnknown
}
