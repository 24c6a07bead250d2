// Package parse recovers a StructuredAnswer from raw model text.
//
// Models asked for JSON still wrap it in code fences, prefix it with a sentence, or
// trail off into commentary. Extract tries progressively looser strategies and reports
// the outcome as a Result that is either Parsed or Malformed.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

// Result is the outcome of Extract. It is implemented only by Parsed and Malformed.
type Result interface {
	isResult()
}

// Parsed carries a decoded answer and the strategy that produced it.
type Parsed struct {
	Answer   domain.StructuredAnswer
	Strategy Strategy
}

// Malformed carries the original text when no JSON object could be recovered.
// Err wraps generation.ErrMalformedOutput.
type Malformed struct {
	Raw string
	Err error
}

func (Parsed) isResult()    {}
func (Malformed) isResult() {}

// Strategy names how the JSON object was located.
type Strategy string

// Extraction strategies in the order they are attempted.
const (
	StrategyWhole Strategy = "whole_text"
	StrategySpan  Strategy = "outer_braces"
	StrategyScan  Strategy = "brace_scan"
)

// Extract locates and decodes a StructuredAnswer in text. Strategies, first success wins:
//  1. the whole text, after stripping a surrounding ``` or ```json fence;
//  2. the span from the first '{' to the last '}';
//  3. each '{' from left to right, decoding exactly one value and ignoring what follows.
func Extract(text string) Result {
	trimmed := stripFence(strings.TrimSpace(text))

	if answer, ok := decodeWhole(trimmed); ok {
		return Parsed{Answer: answer, Strategy: StrategyWhole}
	}

	first := strings.IndexByte(trimmed, '{')
	last := strings.LastIndexByte(trimmed, '}')
	if first >= 0 && last > first {
		if answer, ok := decodeWhole(trimmed[first : last+1]); ok {
			return Parsed{Answer: answer, Strategy: StrategySpan}
		}
	}

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '{' {
			continue
		}
		if answer, ok := decodePrefix(trimmed[i:]); ok {
			return Parsed{Answer: answer, Strategy: StrategyScan}
		}
	}

	return Malformed{
		Raw: text,
		Err: fmt.Errorf("%w: no JSON object found in %d characters", generation.ErrMalformedOutput, len(text)),
	}
}

// decodeWhole requires s to be exactly one JSON object.
func decodeWhole(s string) (domain.StructuredAnswer, bool) {
	var answer domain.StructuredAnswer
	if !strings.HasPrefix(s, "{") {
		return answer, false
	}
	if err := json.Unmarshal([]byte(s), &answer); err != nil {
		return domain.StructuredAnswer{}, false
	}
	return answer, true
}

// decodePrefix decodes the first JSON value of s and ignores trailing data.
func decodePrefix(s string) (domain.StructuredAnswer, bool) {
	var answer domain.StructuredAnswer
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(&answer); err != nil {
		return domain.StructuredAnswer{}, false
	}
	return answer, true
}

// stripFence removes a ``` fence wrapping the entire text, with or without a language tag.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := strings.TrimSpace(inner[:nl])
		if tag == "" || isLanguageTag(tag) {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
