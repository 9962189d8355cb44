// Package errors provides standardized error types and helpers for the litefile codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or file feature
	ErrUnsupported = errors.New("unsupported")
	// ErrCorrupt indicates the database file violates the SQLite file format
	ErrCorrupt = errors.New("database file is corrupt")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "column", "index")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ParseError represents a parsing error with context
type ParseError struct {
	Format  string // Format being parsed (e.g., "SQL", "record", "header")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// CorruptError represents a file-format violation found while reading pages
type CorruptError struct {
	Page   uint32 // Page number where the violation was found (0 if unknown)
	Detail string // Human-readable description of the violation
	Err    error  // Underlying error, if any
}

func (e *CorruptError) Error() string {
	if e.Page != 0 {
		return fmt.Sprintf("corrupt database: page %d: %s", e.Page, e.Detail)
	}
	return fmt.Sprintf("corrupt database: %s", e.Detail)
}

func (e *CorruptError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorrupt
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether any error in err's chain matches target.
// Re-exported so callers don't need a second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
