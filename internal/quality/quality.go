// Package quality scores rendered answers and maps the score to a cache lifetime.
package quality

import (
	"strings"
	"time"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/render"
)

// Assessor applies fixed-weight heuristics to markdown.
type Assessor struct {
	weights    config.QualityWeights
	thresholds config.QualityThresholds
	minHeaders int
	ttls       [3]time.Duration
}

// DefaultConfig returns the default weights, thresholds and header minimum.
func DefaultConfig() config.QualityConfig {
	return config.QualityConfig{
		Weights:    config.QualityWeights{Title: 0.25, Summary: 0.25, Headers: 0.25, CodeFences: 0.25},
		Thresholds: config.QualityThresholds{VeryHigh: 0.9, High: 0.75, Moderate: 0.5},
		MinHeaders: 2,
	}
}

// NewAssessor creates an Assessor. ttl supplies the long, medium and short lifetimes.
func NewAssessor(cfg config.QualityConfig, ttl config.CacheConfig) *Assessor {
	return &Assessor{
		weights:    cfg.Weights,
		thresholds: cfg.Thresholds,
		minHeaders: cfg.MinHeaders,
		ttls:       [3]time.Duration{ttl.TTLLong, ttl.TTLMedium, ttl.TTLShort},
	}
}

// Assess scores markdown in [0,1]. Each breakdown value is 1 when its check passes and
// 0 otherwise; the overall score is the weighted sum of passing checks.
func (a *Assessor) Assess(markdown string) domain.QualityAssessment {
	structure := render.Analyze(markdown)

	breakdown := domain.QualityBreakdown{
		Title:      pass(hasTitle(structure)),
		Summary:    pass(hasSummary(markdown)),
		Headers:    pass(len(structure.Headers) >= a.minHeaders),
		CodeFences: pass(!render.HasUnclosedFence(markdown)),
	}

	score := breakdown.Title*a.weights.Title +
		breakdown.Summary*a.weights.Summary +
		breakdown.Headers*a.weights.Headers +
		breakdown.CodeFences*a.weights.CodeFences

	return domain.QualityAssessment{OverallScore: clamp(score), Breakdown: breakdown}
}

// TTL maps a score to a cache lifetime. Zero means the result must not be cached.
func (a *Assessor) TTL(score float64) time.Duration {
	switch {
	case score >= a.thresholds.VeryHigh:
		return a.ttls[0]
	case score >= a.thresholds.High:
		return a.ttls[1]
	case score >= a.thresholds.Moderate:
		return a.ttls[2]
	default:
		return 0
	}
}

func hasTitle(s domain.DocumentStructure) bool {
	for _, h := range s.Headers {
		if h.Level == 1 {
			return true
		}
	}
	return false
}

func hasSummary(markdown string) bool {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ">") && strings.TrimSpace(strings.TrimLeft(line, ">")) != "" {
			return true
		}
	}
	return false
}

func pass(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

func clamp(v float64) float64 {
	// Float sums of weights like 0.1 can overshoot 1 by an ulp.
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
