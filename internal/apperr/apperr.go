// Package apperr defines the error taxonomy shared across layers so that
// repositories, services, and handlers agree on a stable mapping to HTTP
// status codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError signals a failed resolution of a path identifier. Resource is
// the entity type name shown to the caller ("User", "Item").
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotFound builds a NotFoundError for the named resource type.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// FieldError is a single per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or constraint-violating input. It always
// carries at least one field entry.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ForbiddenError signals an authorization failure. The message is fixed per
// rule and safe to surface.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// Forbidden builds a ForbiddenError with the given fixed message.
func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// ConflictError signals a business-rule conflict such as a self-targeting
// action.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict builds a ConflictError.
func Conflict(message string) error {
	return &ConflictError{Message: message}
}

// InternalError wraps a storage or otherwise unexpected failure. Error never
// exposes the underlying cause; Unwrap keeps it reachable for logging.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return "internal error" }

func (e *InternalError) Unwrap() error { return e.Err }

// Internal wraps err as an InternalError. A nil err returns nil.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return &InternalError{Err: err}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsValidation reports whether err is a ValidationError, returning it when so.
func IsValidation(err error) (*ValidationError, bool) {
	var e *ValidationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
