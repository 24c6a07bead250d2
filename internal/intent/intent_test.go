package intent

import (
	"testing"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testModels() config.ModelsConfig {
	return config.ModelsConfig{
		Explanation:     config.ModelConfig{Temperature: 0.4, TopP: 0.9, MaxTokens: 2048, Strict: true},
		StudyPlan:       config.ModelConfig{Temperature: 0.5, TopP: 0.9, MaxTokens: 3072, Strict: true},
		PracticeSet:     config.ModelConfig{Model: "practice-model", Temperature: 0.7, TopP: 0.95, MaxTokens: 2048, Strict: true},
		ConceptAnalysis: config.ModelConfig{Temperature: 0.3, TopP: 0.85, MaxTokens: 3072, Strict: true},
		FreeChat:        config.ModelConfig{Temperature: 0.9, TopP: 1, MaxTokens: 1024, Strict: false},
	}
}

func TestDetect(t *testing.T) {
	d := NewDetector(testModels(), "base-model")

	tests := []struct {
		task     string
		declared domain.DeclaredContext
		want     domain.ResponseType
	}{
		{"Explain how recursion works", domain.DeclaredContext{}, domain.ResponseTypeExplanation},
		{"What is a monad?", domain.DeclaredContext{}, domain.ResponseTypeExplanation},
		{"Make me a 4 week study plan for linear algebra", domain.DeclaredContext{}, domain.ResponseTypeStudyPlan},
		{"Help me prepare for my chemistry exam", domain.DeclaredContext{}, domain.ResponseTypeStudyPlan},
		{"Quiz me on the French revolution", domain.DeclaredContext{}, domain.ResponseTypePracticeSet},
		{"Give me practice problems on derivatives", domain.DeclaredContext{}, domain.ResponseTypePracticeSet},
		{"What is the difference between TCP and UDP?", domain.DeclaredContext{}, domain.ResponseTypeConceptAnalysis},
		{"Compare mitosis and meiosis", domain.DeclaredContext{}, domain.ResponseTypeConceptAnalysis},
		{"hello there", domain.DeclaredContext{}, domain.ResponseTypeFreeChat},
		{"I had a long day", domain.DeclaredContext{}, domain.ResponseTypeFreeChat},
		{"photosynthesis", domain.DeclaredContext{Subject: "biology"}, domain.ResponseTypeExplanation},
		{"explain why markets crash", domain.DeclaredContext{Level: "Advanced"}, domain.ResponseTypeExplanation},
		{"market crashes and interest rates", domain.DeclaredContext{Level: "advanced"}, domain.ResponseTypeConceptAnalysis},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.task, tt.declared))
		})
	}
}

func TestDetectTieBreaksInFixedOrder(t *testing.T) {
	d := NewDetector(testModels(), "base-model")

	// "roadmap" and "quiz" both score 3; study plans come first.
	assert.Equal(t, domain.ResponseTypeStudyPlan, d.Detect("roadmap quiz", domain.DeclaredContext{}))
}

func TestResolve(t *testing.T) {
	d := NewDetector(testModels(), "base-model")

	rt, detected := d.Resolve(domain.AnswerRequest{Task: "Explain recursion", ResponseType: "practice_set"})
	assert.Equal(t, domain.ResponseTypePracticeSet, rt)
	assert.False(t, detected, "explicit type wins")

	rt, detected = d.Resolve(domain.AnswerRequest{Task: "Explain recursion"})
	assert.Equal(t, domain.ResponseTypeExplanation, rt)
	assert.True(t, detected)
}

func TestSelect(t *testing.T) {
	d := NewDetector(testModels(), "base-model")

	explanation := d.Select(domain.ResponseTypeExplanation)
	assert.Equal(t, "base-model", explanation.Model)
	assert.Equal(t, 2048, explanation.MaxTokens)
	assert.True(t, explanation.Strict)

	practice := d.Select(domain.ResponseTypePracticeSet)
	assert.Equal(t, "practice-model", practice.Model)

	chat := d.Select(domain.ResponseTypeFreeChat)
	assert.False(t, chat.Strict)
	assert.Equal(t, chat, d.Select(domain.ResponseType("unknown")))
}
