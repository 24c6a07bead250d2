// Package intent classifies a task into a response type and picks the generation
// profile for it.
package intent

import (
	"regexp"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain"
)

type rule struct {
	pattern *regexp.Regexp
	weight  int
}

func rules(weight int, patterns ...string) []rule {
	out := make([]rule, len(patterns))
	for i, p := range patterns {
		out[i] = rule{pattern: regexp.MustCompile(`(?i)` + p), weight: weight}
	}
	return out
}

func join(groups ...[]rule) []rule {
	var out []rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// scored lists the response types in tie-break order. Free chat is the fallback and has
// rules of its own only for small talk.
var scored = []struct {
	responseType domain.ResponseType
	rules        []rule
}{
	{domain.ResponseTypeStudyPlan, join(
		rules(3, `\bstudy plan\b`, `\blearning (?:plan|path)\b`, `\broadmap\b`),
		rules(2, `\bschedule\b`, `\bprepare for\b`, `\bcurriculum\b`, `\bsyllabus\b`),
		rules(1, `\bplan\b`, `\b\d+\s+(?:days?|weeks?|months?)\b`, `\bexam\b`),
	)},
	{domain.ResponseTypePracticeSet, join(
		rules(3, `\bquiz(?:zes)?\b`, `\btest me\b`, `\bpractice (?:set|problems|questions)\b`),
		rules(2, `\bpractice\b`, `\bexercises?\b`, `\bflashcards?\b`, `\bdrills?\b`),
		rules(1, `\bproblems?\b`, `\bquestions?\b`),
	)},
	{domain.ResponseTypeConceptAnalysis, join(
		rules(3, `\bdifference(?:s)? between\b`, `\bcompare\b`, `\bpros and cons\b`),
		rules(2, `\bversus\b`, `\bvs\.?\s`, `\banaly[sz]e\b`, `\btrade-?offs?\b`, `\bcontrast\b`),
		rules(1, `\brelationship\b`, `\bimplications?\b`),
	)},
	{domain.ResponseTypeExplanation, join(
		rules(3, `\bexplain\b`, `\bteach me\b`),
		rules(2, `\bwhat (?:is|are)\b`, `\bhow (?:does|do|can)\b`, `\bdescribe\b`, `\bdefin(?:e|ition)\b`),
		rules(1, `\bwhy\b`, `\bmeaning\b`, `\bunderstand\b`),
	)},
	{domain.ResponseTypeFreeChat, rules(3,
		`^\s*(?:hi|hello|hey|thanks|thank you|good (?:morning|evening))\b`,
	)},
}

// Detector scores tasks against weighted patterns and owns the per-type profiles.
type Detector struct {
	models       config.ModelsConfig
	defaultModel string
}

// NewDetector creates a Detector. defaultModel fills profiles with no model of their own.
func NewDetector(models config.ModelsConfig, defaultModel string) *Detector {
	return &Detector{models: models, defaultModel: defaultModel}
}

// Detect returns the best-scoring response type for task. Declared context nudges the
// scores: a subject or topic favours an explanation, an advanced level favours analysis.
// A task that matches nothing is free chat.
func (d *Detector) Detect(task string, declared domain.DeclaredContext) domain.ResponseType {
	scores := Scores(task, declared)

	best, bestScore := domain.ResponseTypeFreeChat, 0
	for _, candidate := range scored {
		if s := scores[candidate.responseType]; s > bestScore {
			best, bestScore = candidate.responseType, s
		}
	}
	return best
}

// Resolve returns the request's explicit response type when valid and detects one
// otherwise. The second result reports whether detection ran.
func (d *Detector) Resolve(req domain.AnswerRequest) (domain.ResponseType, bool) {
	if req.ResponseType != "" {
		if rt, err := domain.ParseResponseType(req.ResponseType); err == nil {
			return rt, false
		}
	}
	return d.Detect(req.Task, req.Context), true
}

// Scores returns the raw score of every response type.
func Scores(task string, declared domain.DeclaredContext) map[domain.ResponseType]int {
	scores := make(map[domain.ResponseType]int, len(scored))
	for _, candidate := range scored {
		total := 0
		for _, r := range candidate.rules {
			if r.pattern.MatchString(task) {
				total += r.weight
			}
		}
		scores[candidate.responseType] = total
	}

	if strings.TrimSpace(declared.Subject) != "" || strings.TrimSpace(declared.Topic) != "" {
		scores[domain.ResponseTypeExplanation]++
	}
	if strings.EqualFold(strings.TrimSpace(declared.Level), "advanced") {
		scores[domain.ResponseTypeConceptAnalysis]++
	}
	return scores
}

// Select returns the generation profile for rt. Unknown types get the free chat profile.
func (d *Detector) Select(rt domain.ResponseType) config.ModelConfig {
	var profile config.ModelConfig
	switch rt {
	case domain.ResponseTypeExplanation:
		profile = d.models.Explanation
	case domain.ResponseTypeStudyPlan:
		profile = d.models.StudyPlan
	case domain.ResponseTypePracticeSet:
		profile = d.models.PracticeSet
	case domain.ResponseTypeConceptAnalysis:
		profile = d.models.ConceptAnalysis
	default:
		profile = d.models.FreeChat
	}
	if profile.Model == "" {
		profile.Model = d.defaultModel
	}
	return profile
}
