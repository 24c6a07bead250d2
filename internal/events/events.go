package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Answer lifecycle event types.
const (
	TypeAnswerCompleted = "answer.completed"
	TypeAnswerCacheHit  = "answer.cache_hit"
	TypeAnswerDegraded  = "answer.degraded"
	TypeAnswerFailed    = "answer.failed"
)

// AnswerEvent describes how one pipeline traversal ended.
type AnswerEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the TypeAnswer* constants
	Type string `json:"type"`

	RequestID    string  `json:"request_id"`
	Caller       string  `json:"caller,omitempty"`
	ResponseType string  `json:"response_type,omitempty"`
	QualityScore float64 `json:"quality_score"`

	// ErrorKind is set for failed answers, see generation.Kind
	ErrorKind string `json:"error_kind,omitempty"`

	Duration   time.Duration `json:"duration"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewAnswerEvent creates an AnswerEvent of the given type for a request.
func NewAnswerEvent(eventType, requestID string) *AnswerEvent {
	return &AnswerEvent{
		ID:         uuid.New(),
		Type:       eventType,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *AnswerEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the pipeline to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *AnswerEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *AnswerEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *AnswerEvent) error {
	return f(ctx, event)
}
