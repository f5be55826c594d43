// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown          = "UNKNOWN_ERROR"
	CodeAnalysisError    = "ANALYSIS_ERROR"
	CodeCorruptDump      = "CORRUPT_DUMP"
	CodeGraphTooLarge    = "GRAPH_TOO_LARGE"
	CodeGraphAnalysis    = "GRAPH_ANALYSIS_FAILED"
	CodeParseError       = "PARSE_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeTimeout          = "TIMEOUT_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeConfigError      = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrAnalysisError = New(CodeAnalysisError, "analysis error")
	ErrCorruptDump   = New(CodeCorruptDump, "heap source appears corrupt")
	ErrGraphTooLarge = New(CodeGraphTooLarge, "object graph exceeds the dominator-tree node cap")
	ErrGraphAnalysis = New(CodeGraphAnalysis, "graph analysis failed")
	ErrParseError    = New(CodeParseError, "parse error")
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
	ErrTimeout       = New(CodeTimeout, "operation timeout")
	ErrNotFound      = New(CodeNotFound, "resource not found")
	ErrConfigError   = New(CodeConfigError, "configuration error")
)

// IsAnalysisError checks if the error is an analysis error.
func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrAnalysisError)
}

// IsCorruptDump checks if the error indicates a corrupt heap source.
func IsCorruptDump(err error) bool {
	return errors.Is(err, ErrCorruptDump)
}

// IsGraphTooLarge checks if the error indicates the dominator-tree node cap was exceeded.
func IsGraphTooLarge(err error) bool {
	return errors.Is(err, ErrGraphTooLarge)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
