// Package pipeline runs one answer request through a fixed sequence of stages: input
// validation, context enrichment, intent and prompt selection, structured output
// settings, the cache, the upstream call, parsing, schema validation, markdown repair,
// quality assessment and the quality-gated cache write.
//
// Every successful exit returns a schema-valid response or the canonical safe default.
// Only invalid input, rate limiting, an open circuit, timeouts and upstream failures
// escape as errors.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/intent"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/prompt"
	"github.com/phrazzld/scry-tutor/internal/quality"
	"github.com/phrazzld/scry-tutor/internal/ratelimit"
	"github.com/phrazzld/scry-tutor/internal/redact"
	"github.com/phrazzld/scry-tutor/internal/schema"
	"github.com/phrazzld/scry-tutor/internal/upstream"
)

// Stage names, in execution order.
const (
	StageValidateInput          = "validate_input"
	StageEnrichContext          = "enrich_context"
	StageSelectIntent           = "select_intent"
	StageAssertStructuredOutput = "assert_structured_output"
	StageCheckCache             = "check_cache"
	StageCallUpstream           = "call_upstream"
	StageParseOutput            = "parse_output"
	StageValidateSchema         = "validate_schema"
	StageRepairMarkdown         = "repair_markdown"
	StageAssessQuality          = "assess_quality"
	StageWriteCache             = "write_cache"
)

var tracer = otel.Tracer("github.com/phrazzld/scry-tutor/internal/pipeline")

// Completer sends a call upstream. *upstream.Client implements it.
type Completer interface {
	Complete(ctx context.Context, call upstream.Call) (string, error)
}

// Request is one answer request and the identity it is rate limited under.
type Request struct {
	domain.AnswerRequest
	Caller string
	Tier   ratelimit.Tier
}

// Result is what a caller receives for a completed request.
type Result struct {
	RequestID    string
	Markdown     string
	Structured   domain.ResponseStructure
	Quality      domain.QualityAssessment
	ResponseType domain.ResponseType
	CacheHit     bool
	Degraded     bool
	CacheTTL     time.Duration
}

// Deps are the collaborators a Pipeline needs. Cache and Events may be nil.
type Deps struct {
	Upstream  Completer
	Cache     cache.Store
	Detector  *intent.Detector
	Prompts   *prompt.Builder
	Validator *schema.Validator
	Assessor  *quality.Assessor
	Events    events.EventEmitter
}

// Config holds request limits.
type Config struct {
	MaxTaskLength int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRequestIDs replaces the request id generator.
func WithRequestIDs(next func() string) Option {
	return func(p *Pipeline) { p.newID = next }
}

type stage struct {
	name string
	run  func(ctx context.Context, s *State) error
}

// Pipeline processes requests. It holds no per-request state and is safe for concurrent
// use.
type Pipeline struct {
	deps   Deps
	config Config
	stages []stage
	now    func() time.Time
	newID  func() string
}

// New creates a Pipeline.
func New(deps Deps, cfg Config, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Upstream == nil:
		return nil, fmt.Errorf("%w: upstream client is required", generation.ErrInvalidConfig)
	case deps.Detector == nil:
		return nil, fmt.Errorf("%w: intent detector is required", generation.ErrInvalidConfig)
	case deps.Prompts == nil:
		return nil, fmt.Errorf("%w: prompt builder is required", generation.ErrInvalidConfig)
	case deps.Assessor == nil:
		return nil, fmt.Errorf("%w: quality assessor is required", generation.ErrInvalidConfig)
	}
	if deps.Validator == nil {
		deps.Validator = schema.NewValidator()
	}
	if deps.Events == nil {
		deps.Events = events.NoopEmitter{}
	}

	p := &Pipeline{
		deps:   deps,
		config: cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stages = []stage{
		{StageValidateInput, p.validateInput},
		{StageEnrichContext, p.enrichContext},
		{StageSelectIntent, p.selectIntent},
		{StageAssertStructuredOutput, p.assertStructuredOutput},
		{StageCheckCache, p.checkCache},
		{StageCallUpstream, p.callUpstream},
		{StageParseOutput, p.parseOutput},
		{StageValidateSchema, p.validateSchema},
		{StageRepairMarkdown, p.repairMarkdown},
		{StageAssessQuality, p.assessQuality},
		{StageWriteCache, p.writeCache},
	}
	return p, nil
}

// Process runs req through every stage. A cache hit ends the traversal after
// check_cache. On error no result is returned.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	state := &State{
		RequestID: p.newID(),
		StartedAt: p.now(),
		Request:   req,
	}

	ctx = logger.WithRequestID(ctx, state.RequestID)
	ctx, span := tracer.Start(ctx, "pipeline.process")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", state.RequestID))

	log := logger.FromContext(ctx)

	for _, st := range p.stages {
		if err := p.runStage(ctx, st, state); err != nil {
			state.FinishedAt = p.now()
			span.RecordError(err)
			span.SetStatus(codes.Error, generation.Kind(err))
			log.WarnContext(ctx, "answer pipeline failed",
				"stage", st.name,
				"error_kind", generation.Kind(err),
				"error", redact.Error(err))
			p.emit(ctx, events.TypeAnswerFailed, state, err)
			return nil, err
		}
		if state.CacheHit {
			break
		}
	}
	state.FinishedAt = p.now()

	span.SetAttributes(
		attribute.String("response.type", string(state.ResponseType)),
		attribute.Bool("cache.hit", state.CacheHit),
		attribute.Bool("degraded", state.Degraded),
		attribute.Float64("quality.score", state.Response.QualityAssessment.OverallScore),
	)

	eventType := events.TypeAnswerCompleted
	switch {
	case state.CacheHit:
		eventType = events.TypeAnswerCacheHit
	case state.Degraded:
		eventType = events.TypeAnswerDegraded
	}
	p.emit(ctx, eventType, state, nil)

	log.InfoContext(ctx, "answer pipeline completed",
		"response_type", state.ResponseType,
		"cache_hit", state.CacheHit,
		"degraded", state.Degraded,
		"quality_score", state.Response.QualityAssessment.OverallScore,
		"duration_ms", state.FinishedAt.Sub(state.StartedAt).Milliseconds())

	return &Result{
		RequestID:    state.RequestID,
		Markdown:     state.Response.Content.Markdown,
		Structured:   state.Response,
		Quality:      state.Response.QualityAssessment,
		ResponseType: state.ResponseType,
		CacheHit:     state.CacheHit,
		Degraded:     state.Degraded,
		CacheTTL:     state.CacheTTL,
	}, nil
}

func (p *Pipeline) runStage(ctx context.Context, st stage, state *State) error {
	ctx, span := tracer.Start(ctx, "pipeline."+st.name)
	defer span.End()

	if err := st.run(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, generation.Kind(err))
		return err
	}
	state.Steps = append(state.Steps, st.name)
	return nil
}

func (p *Pipeline) emit(ctx context.Context, eventType string, state *State, err error) {
	event := events.NewAnswerEvent(eventType, state.RequestID)
	event.Caller = state.Request.Caller
	event.ResponseType = string(state.ResponseType)
	event.QualityScore = state.Response.QualityAssessment.OverallScore
	event.ErrorKind = generation.Kind(err)
	event.Duration = state.FinishedAt.Sub(state.StartedAt)

	if emitErr := p.deps.Events.EmitEvent(ctx, event); emitErr != nil {
		logger.FromContext(ctx).WarnContext(ctx, "failed to emit answer event",
			"event_type", eventType,
			"error", emitErr)
	}
}
