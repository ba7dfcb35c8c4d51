package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not activated")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMailDelivery       = errors.New("mail delivery failed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("access forbidden")

	ErrDuplicateKey      = errors.New("duplicate key")
	ErrDuplicateUsername = &duplicateError{field: "username"}
	ErrDuplicateEmail    = &duplicateError{field: "email"}

	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryExists    = &duplicateError{field: "name"}
	ErrInvalidTransition = errors.New("invalid status transition")
)

// duplicateError is a DuplicateKey violation on a single field.
type duplicateError struct {
	field string
}

func (e *duplicateError) Error() string { return e.field + " already exists" }

func (e *duplicateError) Unwrap() error { return ErrDuplicateKey }

// Field names the form field the violation belongs to.
func (e *duplicateError) Field() string { return e.field }

// ValidationError carries user-correctable, per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records msg for field unless the field already has a message.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when no field failed, so callers can write `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}
