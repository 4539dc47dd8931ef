package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when an operation is invoked without a resolved actor.
var ErrUnauthorized = errors.New("missing actor context")

// NotFoundError indicates that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFound creates a NotFoundError for the given entity and id.
func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError indicates invalid input. Fields names the offending fields
// when they are known.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// NewValidation creates a ValidationError.
func NewValidation(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// ConflictError indicates a uniqueness violation. ExistingTaskID names the
// task that already satisfies the conflicting predicate when it is known.
type ConflictError struct {
	Message        string
	ExistingTaskID uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.ExistingTaskID == uuid.Nil {
		return e.Message
	}
	return fmt.Sprintf("%s (existing task %s)", e.Message, e.ExistingTaskID)
}

// ForbiddenError indicates a role or ownership violation.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}
