package api

import (
	"time"

	"github.com/phrazzld/scry-tutor/internal/breaker"
	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/pipeline"
)

// AnswerRequest defines the payload for POST /api/answers.
type AnswerRequest struct {
	Task         string           `json:"task"                    validate:"required"`
	Audience     string           `json:"audience,omitempty"      validate:"omitempty,max=200"`
	Tone         string           `json:"tone,omitempty"          validate:"omitempty,max=100"`
	ResponseType string           `json:"response_type,omitempty" validate:"omitempty,max=40"`
	Context      *DeclaredContext `json:"context,omitempty"`
	History      []HistoryTurn    `json:"history,omitempty"       validate:"omitempty,max=50,dive"`
}

// DeclaredContext is optional subject information supplied by the caller.
type DeclaredContext struct {
	Subject string `json:"subject,omitempty" validate:"omitempty,max=200"`
	Topic   string `json:"topic,omitempty"   validate:"omitempty,max=200"`
	Level   string `json:"level,omitempty"   validate:"omitempty,max=40"`
}

// HistoryTurn is one prior exchange.
type HistoryTurn struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// toDomain converts the payload into the pipeline's request type.
func (r AnswerRequest) toDomain() domain.AnswerRequest {
	out := domain.AnswerRequest{
		Task:         r.Task,
		Audience:     r.Audience,
		Tone:         r.Tone,
		ResponseType: r.ResponseType,
	}
	if r.Context != nil {
		out.Context = domain.DeclaredContext{
			Subject: r.Context.Subject,
			Topic:   r.Context.Topic,
			Level:   r.Context.Level,
		}
	}
	for _, turn := range r.History {
		out.History = append(out.History, domain.Turn{Role: turn.Role, Content: turn.Content})
	}
	return out
}

// AnswerResponse defines the successful response of POST /api/answers.
type AnswerResponse struct {
	RequestID    string                   `json:"request_id"`
	ResponseType string                   `json:"response_type"`
	Markdown     string                   `json:"markdown"`
	Response     domain.ResponseStructure `json:"response"`
	CacheHit     bool                     `json:"cache_hit"`
	Degraded     bool                     `json:"degraded"`

	// CacheTTLSeconds is zero when the answer was not cached.
	CacheTTLSeconds int64 `json:"cache_ttl_seconds"`
}

func answerToResponse(res *pipeline.Result) AnswerResponse {
	return AnswerResponse{
		RequestID:       res.RequestID,
		ResponseType:    string(res.ResponseType),
		Markdown:        res.Markdown,
		Response:        res.Structured,
		CacheHit:        res.CacheHit,
		Degraded:        res.Degraded,
		CacheTTLSeconds: int64(res.CacheTTL / time.Second),
	}
}

// StatusResponse defines the response of GET /api/status.
type StatusResponse struct {
	// Status is "ok", or "degraded" while any breaker is not closed.
	Status   string                      `json:"status"`
	Provider string                      `json:"provider,omitempty"`
	Breakers map[string]breaker.Snapshot `json:"breakers"`
	Cache    *cache.Stats                `json:"cache,omitempty"`
	Events   map[string]int64            `json:"events,omitempty"`
	Time     time.Time                   `json:"time"`
}
