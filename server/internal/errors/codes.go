// Package errors defines the error taxonomy for the agent and research
// endpoints. Every error crossing an API boundary carries a stable code so
// clients can branch on failure class instead of message text.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure.
type ErrorCode string

const (
	// ErrCodeInvalidArgument means the request payload was malformed or
	// out of range.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeSessionBusy means the session is already generating.
	ErrCodeSessionBusy ErrorCode = "SESSION_BUSY"
	// ErrCodeSessionNotFound means no session exists for the given ID.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeRateLimitExceeded means the caller hit the request rate limit.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeAgentExecutionFailed means an agent failed to produce output.
	ErrCodeAgentExecutionFailed ErrorCode = "AGENT_EXECUTION_FAILED"
	// ErrCodeLLMUnavailable means the model provider rejected or dropped
	// the request.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeToolFailed means a research tool call failed.
	ErrCodeToolFailed ErrorCode = "TOOL_FAILED"
	// ErrCodeContextCanceled means the request was canceled by the caller.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout means the operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeServiceUnavailable means a dependency is down or unconfigured.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeInternal is the fallback for unclassified failures.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AgentError is a classified error with optional context values.
type AgentError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for logging.
func (e *AgentError) WithContext(key string, value any) *AgentError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a classified error.
func New(code ErrorCode, message string) *AgentError {
	return &AgentError{Code: code, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AgentError {
	return &AgentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message. Returns nil when
// err is nil.
func Wrap(err error, code ErrorCode, message string) *AgentError {
	if err == nil {
		return nil
	}
	return &AgentError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether err (or anything it wraps) carries the code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or ErrCodeInternal when the
// error is unclassified.
func CodeOf(err error) ErrorCode {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error code to an HTTP status code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidArgument:
		return 400
	case ErrCodeSessionNotFound:
		return 404
	case ErrCodeSessionBusy:
		return 409
	case ErrCodeRateLimitExceeded:
		return 429
	case ErrCodeContextCanceled:
		return 499
	case ErrCodeTimeout:
		return 504
	case ErrCodeLLMUnavailable, ErrCodeServiceUnavailable:
		return 503
	default:
		return 500
	}
}
