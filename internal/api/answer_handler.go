package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/pipeline"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

// AnswerService produces answers. *pipeline.Pipeline implements it.
type AnswerService interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// AnswerHandler handles answer requests.
type AnswerHandler struct {
	answers AnswerService

	rateLimitRetryAfter time.Duration
	circuitRetryAfter   time.Duration
}

// AnswerHandlerOption configures an AnswerHandler.
type AnswerHandlerOption func(*AnswerHandler)

// WithRetryAfter sets the Retry-After hints sent with 429 and 503 responses.
func WithRetryAfter(rateLimited, circuitOpen time.Duration) AnswerHandlerOption {
	return func(h *AnswerHandler) {
		h.rateLimitRetryAfter = rateLimited
		h.circuitRetryAfter = circuitOpen
	}
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(answers AnswerService, opts ...AnswerHandlerOption) *AnswerHandler {
	h := &AnswerHandler{answers: answers}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateAnswer handles POST /api/answers requests.
func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	caller, tier, ok := shared.CallerFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Caller not found in request context")
		return
	}

	var req AnswerRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err,
			shared.WithKind("invalid_input"))
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err,
			shared.WithKind("invalid_input"))
		return
	}

	result, err := h.answers.Process(r.Context(), pipeline.Request{
		AnswerRequest: req.toDomain(),
		Caller:        caller,
		Tier:          tier,
	})
	if err != nil {
		var opts []shared.ResponseOption
		switch MapErrorToStatusCode(err) {
		case http.StatusTooManyRequests:
			opts = append(opts, shared.WithRetryAfter(retrySeconds(h.rateLimitRetryAfter)))
		case http.StatusServiceUnavailable:
			opts = append(opts, shared.WithRetryAfter(retrySeconds(h.circuitRetryAfter)))
		}
		HandleAPIError(w, r, err, "", opts...)
		return
	}

	logger.FromContext(r.Context()).Debug("answer served",
		"request_id", result.RequestID,
		"caller", caller,
		"response_type", result.ResponseType,
		"cache_hit", result.CacheHit,
		"degraded", result.Degraded)

	shared.RespondWithJSON(w, r, http.StatusOK, answerToResponse(result))
}

// retrySeconds rounds d up to whole seconds; zero stays zero.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
