package flow

import (
	"errors"
	"fmt"
)

var (
	ErrFlowComplete = errors.New("flow already complete")
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// NotFoundError means a question id is not in the catalog. It points at a
// configuration defect, never at user input.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("question %q not found in catalog", e.ID)
}

// ValidationError is a user-correctable input problem. State is left unchanged.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// SubmissionError wraps a failed call to the submission collaborator
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return "submission failed: " + e.Reason
	}
	return fmt.Sprintf("submission failed: %s: %v", e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
