package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Turn is one prior exchange in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeclaredContext is optional context the caller knows about the task.
// The intent detector treats it as a hint, never as a requirement.
type DeclaredContext struct {
	Subject string `json:"subject,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Level   string `json:"level,omitempty"`
}

// AnswerRequest is the input to the answer pipeline.
type AnswerRequest struct {
	Task         string          `json:"task"`
	Audience     string          `json:"audience,omitempty"`
	Tone         string          `json:"tone,omitempty"`
	ResponseType string          `json:"response_type,omitempty"`
	Context      DeclaredContext `json:"context"`
	History      []Turn          `json:"history,omitempty"`
}

// Validate checks the request against the given maximum task length in runes.
// An empty response type is allowed and means "detect it".
func (r *AnswerRequest) Validate(maxTaskLength int) error {
	task := strings.TrimSpace(r.Task)
	if task == "" {
		return ErrEmptyTask
	}
	if maxTaskLength > 0 && utf8.RuneCountInString(task) > maxTaskLength {
		return fmt.Errorf("%w: %d characters, limit %d", ErrTaskTooLong, utf8.RuneCountInString(task), maxTaskLength)
	}
	if r.ResponseType != "" {
		if _, err := ParseResponseType(r.ResponseType); err != nil {
			return err
		}
	}
	for i, turn := range r.History {
		if turn.Role != "user" && turn.Role != "assistant" {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidHistory, i, turn.Role)
		}
		if strings.TrimSpace(turn.Content) == "" {
			return fmt.Errorf("%w: turn %d is empty", ErrInvalidHistory, i)
		}
	}
	return nil
}
