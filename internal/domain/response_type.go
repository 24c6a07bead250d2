package domain

import (
	"fmt"
	"strings"
)

// ResponseType is the closed set of answer shapes the pipeline can produce.
type ResponseType string

// Supported response types.
const (
	ResponseTypeExplanation     ResponseType = "explanation"
	ResponseTypeStudyPlan       ResponseType = "study-plan"
	ResponseTypePracticeSet     ResponseType = "practice-set"
	ResponseTypeConceptAnalysis ResponseType = "concept-analysis"
	ResponseTypeFreeChat        ResponseType = "free-chat"
)

// ResponseTypes lists every supported response type in a stable order.
var ResponseTypes = []ResponseType{
	ResponseTypeExplanation,
	ResponseTypeStudyPlan,
	ResponseTypePracticeSet,
	ResponseTypeConceptAnalysis,
	ResponseTypeFreeChat,
}

// Valid reports whether t is one of the supported response types.
func (t ResponseType) Valid() bool {
	for _, rt := range ResponseTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// ParseResponseType normalizes s and returns the matching ResponseType.
// Underscores are accepted in place of hyphens.
func ParseResponseType(s string) (ResponseType, error) {
	t := ResponseType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidResponseType, s)
	}
	return t, nil
}
