package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/scry-tutor/internal/api/shared"
	"github.com/phrazzld/scry-tutor/internal/breaker"
	"github.com/phrazzld/scry-tutor/internal/cache"
)

// BreakerSnapshotter reports breaker states. *breaker.Registry implements it.
type BreakerSnapshotter interface {
	Snapshot() map[string]breaker.Snapshot
}

// CacheStatter reports cache counters. *cache.Memory and *cache.Tiered implement it.
type CacheStatter interface {
	Stats() cache.Stats
}

// EventCounter reports lifecycle event counts. *events.Counter implements it.
type EventCounter interface {
	Snapshot() map[string]int64
}

// StatusHandler reports the health of the answer service's shared components.
type StatusHandler struct {
	provider string
	breakers BreakerSnapshotter
	cache    CacheStatter
	events   EventCounter
	now      func() time.Time
}

// NewStatusHandler creates a StatusHandler. cache and events may be nil.
func NewStatusHandler(provider string, breakers BreakerSnapshotter, cache CacheStatter, events EventCounter) *StatusHandler {
	return &StatusHandler{
		provider: provider,
		breakers: breakers,
		cache:    cache,
		events:   events,
		now:      time.Now,
	}
}

// GetStatus handles GET /api/status requests.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:   "ok",
		Provider: h.provider,
		Breakers: map[string]breaker.Snapshot{},
		Time:     h.now().UTC(),
	}

	if h.breakers != nil {
		resp.Breakers = h.breakers.Snapshot()
	}
	for _, snap := range resp.Breakers {
		if snap.State != breaker.StateClosed.String() {
			resp.Status = "degraded"
		}
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		resp.Cache = &stats
	}
	if h.events != nil {
		resp.Events = h.events.Snapshot()
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Health handles GET /health requests.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
