package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/parse"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/prompt"
	"github.com/phrazzld/scry-tutor/internal/ratelimit"
	"github.com/phrazzld/scry-tutor/internal/render"
	"github.com/phrazzld/scry-tutor/internal/schema"
	"github.com/phrazzld/scry-tutor/internal/upstream"
)

// Warning and optimization messages recorded in processing metadata.
const (
	warnCacheUnavailable = "cache unavailable; answer generated without cache"
	warnCacheWriteFailed = "answer could not be cached"
	warnUnstructured     = "model returned unstructured text; rendered as markdown"
	warnFenceRepaired    = "closed an unterminated code fence"

	optCacheHit       = "cache_hit"
	optHistoryTrimmed = "history_trimmed"
	optRelaxedOutput  = "structured_output_relaxed"
)

// cachedAnswer is the value stored under a request fingerprint.
type cachedAnswer struct {
	ResponseType domain.ResponseType      `json:"response_type"`
	Response     domain.ResponseStructure `json:"response"`
}

func (p *Pipeline) validateInput(_ context.Context, s *State) error {
	if err := s.Request.Validate(p.config.MaxTaskLength); err != nil {
		return fmt.Errorf("%w: %w", generation.ErrInvalidInput, err)
	}
	return nil
}

func (p *Pipeline) enrichContext(_ context.Context, s *State) error {
	req := &s.Request
	req.Task = collapse(req.Task)
	req.Audience = collapse(req.Audience)
	req.Tone = collapse(req.Tone)
	req.Context.Subject = collapse(req.Context.Subject)
	req.Context.Topic = collapse(req.Context.Topic)
	req.Context.Level = strings.ToLower(collapse(req.Context.Level))
	if req.Caller == "" {
		req.Caller = "anonymous"
	}
	req.Tier = ratelimit.ParseTier(string(req.Tier))
	return nil
}

func (p *Pipeline) selectIntent(ctx context.Context, s *State) error {
	s.ResponseType, s.Detected = p.deps.Detector.Resolve(s.Request.AnswerRequest)
	s.Model = p.deps.Detector.Select(s.ResponseType)

	out, err := p.deps.Prompts.Build(prompt.Input{
		ResponseType: s.ResponseType,
		Task:         s.Request.Task,
		Audience:     s.Request.Audience,
		Tone:         s.Request.Tone,
		Context:      s.Request.Context,
		History:      s.Request.History,
	})
	if err != nil {
		return err
	}
	s.Messages = out.Messages
	if out.DroppedTurns > 0 {
		s.optimize(fmt.Sprintf("%s: dropped %d of %d turns", optHistoryTrimmed, out.DroppedTurns, len(s.Request.History)))
	}

	logger.FromContext(ctx).DebugContext(ctx, "intent selected",
		"response_type", s.ResponseType,
		"detected", s.Detected,
		"model", s.Model.Model,
		"strict", s.Model.Strict)
	return nil
}

func (p *Pipeline) assertStructuredOutput(_ context.Context, s *State) error {
	s.Params = generation.Params{
		Temperature: s.Model.Temperature,
		TopP:        s.Model.TopP,
		MaxTokens:   s.Model.MaxTokens,
		JSONMode:    s.Model.Strict,
	}
	if !s.Model.Strict {
		s.optimize(optRelaxedOutput)
	}
	return nil
}

func (p *Pipeline) checkCache(ctx context.Context, s *State) error {
	s.CacheKey = cache.Fingerprint(s.Request.Task, s.Request.Audience, s.Request.Tone, string(s.ResponseType))
	if p.deps.Cache == nil {
		return nil
	}

	entry, ok, err := p.deps.Cache.Get(ctx, s.CacheKey)
	if err != nil {
		s.warn(warnCacheUnavailable)
		return nil
	}
	if !ok {
		return nil
	}

	var cached cachedAnswer
	if err := json.Unmarshal(entry.Value, &cached); err != nil || p.deps.Validator.ValidateResponse(cached.Response) != nil {
		logger.FromContext(ctx).WarnContext(ctx, "discarding unusable cache entry", "key", s.CacheKey)
		_ = p.deps.Cache.Delete(ctx, s.CacheKey)
		return nil
	}

	s.CacheHit = true
	s.optimize(optCacheHit)
	s.Response = cached.Response
	s.Response.ProcessingMetadata = s.metadata(StageCheckCache)
	return nil
}

func (p *Pipeline) callUpstream(ctx context.Context, s *State) error {
	raw, err := p.deps.Upstream.Complete(ctx, upstream.Call{
		Caller:   s.Request.Caller,
		Tier:     s.Request.Tier,
		Model:    s.Model.Model,
		Messages: s.Messages,
		Params:   s.Params,
	})
	if err != nil {
		return err
	}
	s.Raw = raw
	return nil
}

func (p *Pipeline) parseOutput(_ context.Context, s *State) error {
	s.Parse = parse.Extract(s.Raw)
	return nil
}

func (p *Pipeline) validateSchema(ctx context.Context, s *State) error {
	log := logger.FromContext(ctx)

	switch result := s.Parse.(type) {
	case parse.Parsed:
		if err := p.deps.Validator.ValidateAnswer(result.Answer); err != nil {
			// Prose that merely contains a JSON object is still a usable free-form reply.
			if !s.Model.Strict {
				p.keepUnstructured(s, s.Raw)
				return nil
			}
			log.WarnContext(ctx, "parsed answer failed schema validation", "error", err)
			p.degrade(s)
			return nil
		}
		answer := result.Answer
		s.Answer = &answer
		s.Markdown = render.Render(answer).Markdown
	case parse.Malformed:
		if !s.Model.Strict {
			p.keepUnstructured(s, result.Raw)
			return nil
		}
		log.WarnContext(ctx, "model output could not be parsed", "error", result.Err)
		p.degrade(s)
	default:
		p.degrade(s)
	}
	return nil
}

func (p *Pipeline) keepUnstructured(s *State, raw string) {
	s.Markdown = strings.TrimSpace(raw)
	s.warn(warnUnstructured)
}

func (p *Pipeline) repairMarkdown(_ context.Context, s *State) error {
	if s.Degraded {
		return nil
	}
	if repaired, changed := render.RepairFences(s.Markdown); changed {
		s.Markdown = repaired
		s.warn(warnFenceRepaired)
	}
	s.Structure = render.Analyze(s.Markdown)
	return nil
}

func (p *Pipeline) assessQuality(ctx context.Context, s *State) error {
	if s.Degraded {
		return nil
	}
	s.Quality = p.deps.Assessor.Assess(s.Markdown)

	resp := domain.ResponseStructure{
		Content:            domain.Content{Markdown: s.Markdown, Structure: s.Structure},
		QualityAssessment:  s.Quality,
		ProcessingMetadata: s.metadata(StageAssessQuality),
	}

	if err := p.deps.Validator.ValidateResponse(resp); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "assembled response failed schema validation", "error", err)
		p.degrade(s)
		return nil
	}
	s.Response = resp
	return nil
}

func (p *Pipeline) writeCache(ctx context.Context, s *State) error {
	if s.Degraded || p.deps.Cache == nil {
		return nil
	}
	ttl := p.deps.Assessor.TTL(s.Quality.OverallScore)
	if ttl <= 0 {
		return nil
	}

	value, err := json.Marshal(cachedAnswer{ResponseType: s.ResponseType, Response: s.Response})
	if err == nil {
		err = p.deps.Cache.Set(ctx, s.CacheKey, value, ttl)
	}
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "failed to cache answer", "error", err)
		s.warn(warnCacheWriteFailed)
		s.Response.ProcessingMetadata.Warnings = append(s.Response.ProcessingMetadata.Warnings, warnCacheWriteFailed)
		return nil
	}
	s.CacheTTL = ttl
	return nil
}

// degrade replaces the response with the canonical safe default.
func (p *Pipeline) degrade(s *State) {
	s.Degraded = true
	s.Answer = nil
	s.Response = schema.SafeDefault()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
