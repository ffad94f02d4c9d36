package service

import (
	"errors"
	"fmt"
)

// ErrConcurrentModification signals a lost race: another caller changed
// the entity's status between read and write. The operation was not
// applied and may be retried by the caller.
var ErrConcurrentModification = errors.New("concurrent modification")

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError reports that the actor lacks rights for the requested
// mutation.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Message
}

// NewForbiddenError creates a ForbiddenError.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// NotFoundError reports an unknown entity ID.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidTransitionError reports a state machine violation.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}

// NewInvalidTransitionError creates an InvalidTransitionError.
func NewInvalidTransitionError(entity, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}
