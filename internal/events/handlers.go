package events

import (
	"context"
	"log/slog"
	"sync"
)

// Counter tallies events by type.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

// HandleEvent implements EventHandler.
func (c *Counter) HandleEvent(_ context.Context, event *AnswerEvent) error {
	c.mu.Lock()
	c.counts[event.Type]++
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current counts.
func (c *Counter) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// NewLogHandler returns a handler that writes one structured record per event.
// Failed answers are logged at warn level.
func NewLogHandler(logger *slog.Logger) EventHandler {
	return HandlerFunc(func(ctx context.Context, event *AnswerEvent) error {
		level := slog.LevelInfo
		if event.Type == TypeAnswerFailed || event.Type == TypeAnswerDegraded {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "answer lifecycle event",
			"event_id", event.ID,
			"event_type", event.Type,
			"request_id", event.RequestID,
			"caller", event.Caller,
			"response_type", event.ResponseType,
			"quality_score", event.QualityScore,
			"error_kind", event.ErrorKind,
			"duration_ms", event.Duration.Milliseconds())
		return nil
	})
}
