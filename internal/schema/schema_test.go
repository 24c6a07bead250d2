package schema

import (
	"testing"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAnswer() domain.StructuredAnswer {
	return domain.StructuredAnswer{
		Title:   "Channels",
		Summary: "Typed conduits between goroutines.",
		Sections: []domain.Section{
			{
				Heading:    "Sending",
				Body:       "Use the arrow operator.",
				CodeBlocks: []domain.CodeBlock{{Language: "go", Code: "ch <- v"}},
			},
		},
		References: []string{"https://go.dev/ref/spec#Channel_types"},
	}
}

func TestValidateAnswer(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		mutate  func(a *domain.StructuredAnswer)
		wantErr bool
	}{
		{name: "valid", mutate: func(a *domain.StructuredAnswer) {}},
		{name: "no references", mutate: func(a *domain.StructuredAnswer) { a.References = nil }},
		{name: "missing title", mutate: func(a *domain.StructuredAnswer) { a.Title = "" }, wantErr: true},
		{name: "blank summary", mutate: func(a *domain.StructuredAnswer) { a.Summary = "   " }, wantErr: true},
		{name: "no sections", mutate: func(a *domain.StructuredAnswer) { a.Sections = nil }, wantErr: true},
		{name: "section without heading", mutate: func(a *domain.StructuredAnswer) { a.Sections[0].Heading = "" }, wantErr: true},
		{name: "section with blank body", mutate: func(a *domain.StructuredAnswer) { a.Sections[0].Body = "\n" }, wantErr: true},
		{name: "code block without code", mutate: func(a *domain.StructuredAnswer) { a.Sections[0].CodeBlocks[0].Code = "" }, wantErr: true},
		{name: "empty reference", mutate: func(a *domain.StructuredAnswer) { a.References = []string{""} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnswer()
			tt.mutate(&a)
			err := v.ValidateAnswer(a)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, generation.ErrSchemaInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateResponse(t *testing.T) {
	v := NewValidator()

	valid := domain.ResponseStructure{
		Content: domain.Content{
			Markdown: "# Channels",
			Structure: domain.DocumentStructure{
				Headers: []domain.Header{{Text: "Channels", Level: 1}},
			},
		},
		QualityAssessment: domain.QualityAssessment{
			OverallScore: 0.75,
			Breakdown:    domain.QualityBreakdown{Title: 1, Summary: 1, Headers: 0, CodeFences: 1},
		},
		ProcessingMetadata: domain.ProcessingMetadata{StepsCompleted: []string{"validate_input"}},
	}
	require.NoError(t, v.ValidateResponse(valid))

	outOfRange := valid
	outOfRange.QualityAssessment.OverallScore = 1.5
	assert.ErrorIs(t, v.ValidateResponse(outOfRange), generation.ErrSchemaInvalid)

	badHeader := valid
	badHeader.Content.Structure.Headers = []domain.Header{{Text: "x", Level: 7}}
	assert.ErrorIs(t, v.ValidateResponse(badHeader), generation.ErrSchemaInvalid)

	noSteps := valid
	noSteps.ProcessingMetadata.StepsCompleted = nil
	assert.ErrorIs(t, v.ValidateResponse(noSteps), generation.ErrSchemaInvalid)

	blank := valid
	blank.Content.Markdown = "  "
	assert.ErrorIs(t, v.ValidateResponse(blank), generation.ErrSchemaInvalid)
}

func TestSafeDefault(t *testing.T) {
	first := SafeDefault()
	second := SafeDefault()

	assert.Equal(t, first, second, "safe default is deterministic")
	assert.Equal(t, SafeDefaultMarkdown, first.Content.Markdown)
	assert.Zero(t, first.QualityAssessment.OverallScore)
	assert.Equal(t, []string{SafeDefaultWarning}, first.ProcessingMetadata.Warnings)
	assert.Equal(t, []string{SafeDefaultStep}, first.ProcessingMetadata.StepsCompleted)
	assert.True(t, IsSafeDefault(first))

	first.ProcessingMetadata.Warnings[0] = "changed"
	assert.Equal(t, SafeDefaultWarning, SafeDefault().ProcessingMetadata.Warnings[0], "callers cannot alter later defaults")

	assert.NoError(t, NewValidator().ValidateResponse(SafeDefault()), "safe default satisfies the schema")
}
