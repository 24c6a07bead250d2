package generation

import "errors"

// Errors surfaced to callers of the answer pipeline.
var (
	// ErrInvalidInput is returned when a request fails validation before any work is done.
	// It is never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited is returned when the caller has no tokens left in its bucket.
	// No network call is attempted.
	ErrRateLimited = errors.New("rate limited")

	// ErrCircuitOpen is returned when the breaker for the upstream endpoint rejects the call.
	// No network call is attempted.
	ErrCircuitOpen = errors.New("circuit open")

	// ErrTimeout is returned when the upstream call did not complete within the configured timeout
	// on every attempt.
	ErrTimeout = errors.New("upstream timeout")

	// ErrUpstream is returned when the provider failed and retries were exhausted or the failure
	// was permanent.
	ErrUpstream = errors.New("upstream error")
)

// Errors absorbed by the pipeline into a degraded but valid result.
var (
	// ErrMalformedOutput is returned by the parser when no JSON document can be recovered
	// from the model text.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrSchemaInvalid is returned when a parsed answer does not satisfy the response schema.
	ErrSchemaInvalid = errors.New("schema invalid")
)

// Internal classification errors.
var (
	// ErrTransientFailure marks a provider failure that may succeed on retry
	// (network errors, 5xx, 429, request timeouts).
	ErrTransientFailure = errors.New("transient provider failure")

	// ErrInvalidConfig is returned when a provider or pipeline component is misconfigured.
	ErrInvalidConfig = errors.New("invalid generation configuration")

	// ErrEmptyResponse is returned when the provider answered without any text.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// IsRetryable reports whether err belongs to a class the retry policy may repeat.
// Rejections produced locally (rate limit, open circuit) and output-validation failures
// are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrMalformedOutput),
		errors.Is(err, ErrSchemaInvalid):
		return false
	}
	return errors.Is(err, ErrTransientFailure) || errors.Is(err, ErrTimeout)
}

// Kind returns a short, stable label for err suitable for logs, metrics and API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	case errors.Is(err, ErrSchemaInvalid):
		return "schema_invalid"
	default:
		return "internal"
	}
}
