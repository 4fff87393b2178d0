package models

import "fmt"

// NotFoundError: the referenced entity does not exist (404-equivalent).
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NewNotFoundError(entity string, id int) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError: the input is malformed or violates a rule (400-equivalent).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// InvalidStateError: the operation is not allowed in the entity's current
// state (400-equivalent). The message is part of the caller contract.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

func NewInvalidStateError(msg string) *InvalidStateError {
	return &InvalidStateError{Message: msg}
}
