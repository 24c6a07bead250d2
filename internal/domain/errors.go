package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrEmptyTask is returned when an answer request has no task text.
	ErrEmptyTask = errors.New("task cannot be empty")

	// ErrTaskTooLong is returned when the task exceeds the configured maximum length.
	ErrTaskTooLong = errors.New("task exceeds maximum length")

	// ErrInvalidResponseType is returned when a response type is outside the closed set.
	ErrInvalidResponseType = errors.New("invalid response type")

	// ErrInvalidHistory is returned when a history turn has an unknown role or no content.
	ErrInvalidHistory = errors.New("invalid history turn")
)
