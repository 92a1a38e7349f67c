package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Handlers map these to status codes with errors.Is; anything
// that matches none of them is internal.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrSessionExpired     = fmt.Errorf("%w: session has expired or user doesn't exist", ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrInvalidCode        = fmt.Errorf("%w: invalid verification code", ErrNotFound)
	ErrInvalidResetToken  = fmt.Errorf("%w: invalid or expired reset token", ErrForbidden)
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
)

// FieldError is one failed input rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every failed rule of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// err returns nil when nothing failed so callers can return it directly.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
