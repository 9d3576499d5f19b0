// Package domain contains domain errors used throughout the application.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	ErrRegistration       = errors.New("directory registration failed")
	ErrWatchServiceClosed = errors.New("watch service is closed")
	ErrUnrecognizedKey    = errors.New("watch key not recognized")
	ErrInvalidPattern     = errors.New("invalid exclusion pattern")
	ErrPathOutsideRoot    = errors.New("path is outside watch root")
	ErrHubNotRunning      = errors.New("event hub is not running")
	ErrSubscriberClosed   = errors.New("subscriber is closed")
)

// RegistrationError represents a directory that could not be registered
// with the watch service.
type RegistrationError struct {
	Path string // Directory that failed
	Err  error  // Underlying error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s: %v", e.Path, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Is reports ErrRegistration so callers can match on the category.
func (e *RegistrationError) Is(target error) bool {
	return target == ErrRegistration
}

// NewRegistrationError creates a new RegistrationError.
func NewRegistrationError(path string, err error) *RegistrationError {
	return &RegistrationError{
		Path: path,
		Err:  err,
	}
}

// PatternError represents an exclusion pattern that failed to compile.
type PatternError struct {
	Pattern string
	Syntax  string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s pattern %q: %v", e.Syntax, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Is reports ErrInvalidPattern so callers can match on the category.
func (e *PatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
