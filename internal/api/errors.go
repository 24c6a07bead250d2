package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, generation.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, generation.ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, generation.ErrCircuitOpen):
		return http.StatusServiceUnavailable

	case errors.Is(err, generation.ErrTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, generation.ErrUpstream):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, domain.ErrEmptyTask):
		return "Task is required"

	case errors.Is(err, domain.ErrTaskTooLong):
		return "Task is too long"

	case errors.Is(err, domain.ErrInvalidResponseType):
		return "Unsupported response type"

	case errors.Is(err, domain.ErrInvalidHistory):
		return "Invalid conversation history"

	case errors.Is(err, generation.ErrInvalidInput):
		return "Invalid request"

	case errors.Is(err, generation.ErrRateLimited):
		return "Too many requests, slow down"

	case errors.Is(err, generation.ErrCircuitOpen):
		return "Answer service temporarily unavailable"

	case errors.Is(err, generation.ErrTimeout):
		return "Answer service timed out"

	case errors.Is(err, generation.ErrUpstream):
		return "Answer service failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status, the safe message and the error kind, and
// logs the redacted error. A non-empty customMsg replaces the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, customMsg string, opts ...shared.ResponseOption) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if customMsg != "" {
		message = customMsg
	}

	opts = append([]shared.ResponseOption{shared.WithKind(errorKind(err))}, opts...)
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "unauthorized"
	default:
		return generation.Kind(err)
	}
}

// SanitizeValidationError turns validator errors into a message naming the first
// failing field without echoing its value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

// fieldPath drops the struct name from a validator namespace and lowercases it.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	return strings.ToLower(namespace)
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
