package errors

import (
	"errors"
	"fmt"

	"gutcheck/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    KindOf(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Error kinds, surfaced machine-readably in batch summaries and CLI
// exit paths. They mirror the domain error taxonomy.
const (
	CodeConfigError         = "CONFIG_ERROR"
	CodeInputError          = "INPUT_ERROR"
	CodeClassificationError = "CLASSIFICATION_ERROR"
	CodeZeroAbundance       = "ZERO_ABUNDANCE"
	CodeReviewImportError   = "REVIEW_IMPORT_ERROR"
	CodeTransientIO         = "TRANSIENT_IO"
	CodeInternalError       = "INTERNAL_ERROR"
)

// KindOf maps any error onto its taxonomy code. Domain sentinels take
// precedence; an AppError keeps its own code; everything else is
// INTERNAL_ERROR.
func KindOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case core.IsConfigError(err):
		return CodeConfigError
	case core.IsClassificationError(err):
		return CodeClassificationError
	case core.IsZeroAbundanceError(err):
		return CodeZeroAbundance
	case core.IsReviewImportError(err):
		return CodeReviewImportError
	case core.IsInputError(err):
		return CodeInputError
	case core.IsTransient(err):
		return CodeTransientIO
	default:
		return CodeInternalError
	}
}

// Fatal reports whether an error invalidates the whole batch contract
// (bad configuration or an unusable classification index) rather than
// a single sample.
func Fatal(err error) bool {
	kind := KindOf(err)
	return kind == CodeConfigError || kind == CodeClassificationError
}

// Retryable reports whether a failed operation may be retried with
// backoff. Only transient I/O qualifies; deterministic errors never do.
func Retryable(err error) bool {
	return KindOf(err) == CodeTransientIO
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigError, message)
}

func InputInvalid(message string) *AppError {
	return New(CodeInputError, message)
}

func TransientIO(message string, cause error) *AppError {
	return &AppError{Code: CodeTransientIO, Message: message, Cause: cause}
}
