package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed with a retryable error. It wraps the last error too, so both
// errors.Is(err, ErrRetryExhausted) and errors.As on the provider error work.
var ErrRetryExhausted = errors.New("unillm: all retry attempts exhausted")
