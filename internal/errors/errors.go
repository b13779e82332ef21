// Package errors provides the structured error type used across mdxsite for
// category-based classification in the CLI and the preview daemon.
package errors

import (
	"fmt"
)

// Category classifies a SiteError for exit-code mapping and reporting.
type Category string

const (
	// Authoring and configuration problems the user can fix.
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"
	CategoryContent    Category = "content"

	// External collaborators.
	CategoryGit     Category = "git"
	CategoryNetwork Category = "network"

	// Build machinery.
	CategoryBuild      Category = "build"
	CategoryFileSystem Category = "filesystem"
	CategoryState      Category = "state"

	// Runtime and infrastructure.
	CategoryDaemon   Category = "daemon"
	CategoryInternal Category = "internal"
)

// Severity indicates how critical an error is.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ContextFields carries structured context for a SiteError.
type ContextFields map[string]any

// SiteError is a structured error with category, severity, and context.
type SiteError struct {
	Category  Category      `json:"category"`
	Severity  Severity      `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

func (e *SiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

func (e *SiteError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a context field and returns the error for chaining.
func (e *SiteError) WithContext(key string, value any) *SiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a SiteError.
func New(category Category, severity Severity, message string) *SiteError {
	return &SiteError{Category: category, Severity: severity, Message: message}
}

// Newf creates a SiteError with a formatted message.
func Newf(category Category, severity Severity, format string, args ...any) *SiteError {
	return New(category, severity, fmt.Sprintf(format, args...))
}

// Wrap creates a SiteError around an existing cause.
func Wrap(err error, category Category, severity Severity, message string) *SiteError {
	return &SiteError{Category: category, Severity: severity, Message: message, Cause: err}
}

// WrapRetryable creates a SiteError around a cause that is worth retrying,
// such as a timed-out external link check.
func WrapRetryable(err error, category Category, severity Severity, message string) *SiteError {
	e := Wrap(err, category, severity, message)
	e.Retryable = true
	return e
}

// ContentError creates a content-authoring error: the input is wrong, not
// the system.
func ContentError(message string) *SiteError {
	return New(CategoryContent, SeverityError, message)
}

// ConfigError creates a configuration error.
func ConfigError(message string) *SiteError {
	return New(CategoryConfig, SeverityFatal, message)
}

// IsCategory reports whether err is a SiteError of the given category.
func IsCategory(err error, category Category) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Category == category
	}
	return false
}

// IsRetryable reports whether err is a retryable SiteError.
func IsRetryable(err error) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the category from err, defaulting to
// CategoryInternal for unclassified errors.
func GetCategory(err error) Category {
	if se, ok := err.(*SiteError); ok {
		return se.Category
	}
	return CategoryInternal
}
