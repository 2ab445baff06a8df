package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type AppError struct {
	Err     error  // error kind, one of the sentinels above
	Message string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Unauthorized returns an AppError for failed credential checks.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// ValidationErrors collects per-field validation messages. It serializes as
// the 422 response body: {"errors": {"field": ["message", ...]}}.
type ValidationErrors struct {
	Fields map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Fields: make(map[string][]string)}
}

// ValidationFailed returns a ValidationErrors holding a single field message.
func ValidationFailed(field, message string) *ValidationErrors {
	v := NewValidationErrors()
	v.Add(field, message)
	return v
}

// Add appends a message for the given field.
func (e *ValidationErrors) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages have been collected.
func (e *ValidationErrors) Empty() bool {
	return len(e.Fields) == 0
}

// ErrOrNil returns the collector as an error when it holds any messages,
// nil otherwise. Lets services validate in one pass and bail once.
func (e *ValidationErrors) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationErrors) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationErrors) Unwrap() error {
	return ErrValidation
}
