// Package schema validates structured answers and assembled responses, and supplies the
// canonical safe default returned whenever validation fails.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

// Safe default constants. They never change between calls.
const (
	SafeDefaultMarkdown = "No content available"
	SafeDefaultWarning  = "response failed validation; returning safe default"
	SafeDefaultStep     = "safe_default"
)

// Validator checks values against the response schema. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateAnswer checks a parsed answer. Whitespace-only strings count as missing.
func (v *Validator) ValidateAnswer(answer domain.StructuredAnswer) error {
	if err := v.validate.Struct(answer); err != nil {
		return wrap(err)
	}
	if strings.TrimSpace(answer.Title) == "" {
		return fmt.Errorf("%w: title is blank", generation.ErrSchemaInvalid)
	}
	if strings.TrimSpace(answer.Summary) == "" {
		return fmt.Errorf("%w: summary is blank", generation.ErrSchemaInvalid)
	}
	for i, s := range answer.Sections {
		if strings.TrimSpace(s.Heading) == "" || strings.TrimSpace(s.Body) == "" {
			return fmt.Errorf("%w: section %d is blank", generation.ErrSchemaInvalid, i)
		}
	}
	return nil
}

// ValidateResponse checks an assembled response, including score ranges.
func (v *Validator) ValidateResponse(resp domain.ResponseStructure) error {
	if err := v.validate.Struct(resp); err != nil {
		return wrap(err)
	}
	if strings.TrimSpace(resp.Content.Markdown) == "" {
		return fmt.Errorf("%w: markdown is blank", generation.ErrSchemaInvalid)
	}
	return nil
}

// SafeDefault returns the canonical placeholder response. Every call returns an equal
// value with freshly allocated slices, so callers may not alter a shared instance.
func SafeDefault() domain.ResponseStructure {
	return domain.ResponseStructure{
		Content: domain.Content{
			Markdown: SafeDefaultMarkdown,
			Structure: domain.DocumentStructure{
				Headers:    []domain.Header{},
				Sections:   []domain.SectionSummary{},
				CodeBlocks: []string{},
			},
		},
		QualityAssessment: domain.QualityAssessment{},
		ProcessingMetadata: domain.ProcessingMetadata{
			StepsCompleted: []string{SafeDefaultStep},
			Warnings:       []string{SafeDefaultWarning},
			Optimizations:  []string{},
		},
	}
}

// IsSafeDefault reports whether resp is the canonical safe default.
func IsSafeDefault(resp domain.ResponseStructure) bool {
	return resp.Content.Markdown == SafeDefaultMarkdown &&
		len(resp.ProcessingMetadata.StepsCompleted) == 1 &&
		resp.ProcessingMetadata.StepsCompleted[0] == SafeDefaultStep
}

func wrap(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", generation.ErrSchemaInvalid, strings.Join(fields, "; "))
	}
	return fmt.Errorf("%w: %w", generation.ErrSchemaInvalid, err)
}
