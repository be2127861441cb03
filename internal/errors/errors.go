// Package errors provides structured error types and exit codes for watt.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes returned by the watt CLI.
const (
	ExitSuccess          = 0 // All selected tests passed
	ExitRuntimeError     = 1 // At least one test failed, or a runtime error occurred
	ExitConfigError      = 2 // Configuration error (invalid test config, missing files, etc.)
	ExitEnvironmentError = 3 // Environment error (executor jar or java missing)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindValidation
	KindEnvironment
)

// WattError is the base error type for watt.
type WattError struct {
	Kind     ErrorKind
	Message  string
	Workflow string // Workflow name if applicable
	Test     string // Test name if applicable
	Cause    error  // Underlying error
}

func (e *WattError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Workflow != "" && e.Test != "" {
		return fmt.Sprintf("[%s/%s] %s", e.Workflow, e.Test, msg)
	}
	if e.Workflow != "" {
		return fmt.Sprintf("[%s] %s", e.Workflow, msg)
	}
	return msg
}

func (e *WattError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *WattError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// Config creates a new configuration error.
func Config(message string) *WattError {
	return &WattError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *WattError {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *WattError {
	return &WattError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *WattError {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *WattError {
	return &WattError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, message string) *WattError {
	return &WattError{
		Kind:    KindConfig,
		Message: message,
		Cause:   err,
	}
}

// TestError creates an error scoped to a single workflow test.
func TestError(workflow, test, message string) *WattError {
	return &WattError{
		Kind:     KindConfig,
		Workflow: workflow,
		Test:     test,
		Message:  message,
	}
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var we *WattError
	if stderrors.As(err, &we) {
		return we.ExitCode()
	}
	return ExitRuntimeError
}
