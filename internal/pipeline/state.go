package pipeline

import (
	"time"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/parse"
)

// State is the per-request record every stage reads from and appends to. A stage never
// overwrites a field owned by an earlier stage, except that a cache hit replaces the
// response.
type State struct {
	RequestID  string
	StartedAt  time.Time
	FinishedAt time.Time

	Request Request

	// select_intent
	ResponseType domain.ResponseType
	Detected     bool
	Model        config.ModelConfig
	Messages     []generation.Message

	// assert_structured_output
	Params generation.Params

	// check_cache
	CacheKey string
	CacheHit bool

	// call_upstream
	Raw string

	// parse_output
	Parse parse.Result

	// validate_schema
	Answer   *domain.StructuredAnswer
	Markdown string
	Degraded bool

	// repair_markdown
	Structure domain.DocumentStructure

	// assess_quality
	Quality  domain.QualityAssessment
	Response domain.ResponseStructure

	// write_cache
	CacheTTL time.Duration

	Steps         []string
	Warnings      []string
	Optimizations []string
}

func (s *State) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

func (s *State) optimize(msg string) {
	s.Optimizations = append(s.Optimizations, msg)
}

// metadata snapshots the processing metadata recorded so far, counting the running
// stage as completed.
func (s *State) metadata(running string) domain.ProcessingMetadata {
	return domain.ProcessingMetadata{
		StepsCompleted: append(append([]string{}, s.Steps...), running),
		Warnings:       append([]string{}, s.Warnings...),
		Optimizations:  append([]string{}, s.Optimizations...),
	}
}
