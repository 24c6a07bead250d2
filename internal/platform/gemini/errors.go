package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/genai"

	"github.com/phrazzld/scry-tutor/internal/generation"
)

// ErrContentBlocked is returned when Gemini refuses to answer for safety reasons.
var ErrContentBlocked = errors.New("content blocked by safety filters")

// classifyError maps SDK and transport errors onto the generation error taxonomy.
// Deadline errors are returned unchanged so the caller can tell timeouts apart.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if isRetryableStatus(apiErr.Code) {
			return fmt.Errorf("%w: gemini status %d: %s", generation.ErrTransientFailure, apiErr.Code, apiErr.Status)
		}
		return fmt.Errorf("gemini status %d: %s: %w", apiErr.Code, apiErr.Status, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}

	return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	default:
		return code >= http.StatusInternalServerError
	}
}
