package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Discovery errors
	ErrCodeServiceTypeInvalid ErrorCode = "SERVICE_TYPE_INVALID"
	ErrCodeSourceUnavailable  ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodePollFailed         ErrorCode = "POLL_FAILED"

	// Pipeline errors
	ErrCodeBridgeClosed  ErrorCode = "BRIDGE_CLOSED"
	ErrCodeWriterClaimed ErrorCode = "WRITER_CLAIMED"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Daemon errors
	ErrCodeDaemonRunning    ErrorCode = "DAEMON_RUNNING"
	ErrCodeDaemonNotRunning ErrorCode = "DAEMON_NOT_RUNNING"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// BrowseError represents a structured error with context
type BrowseError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *BrowseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BrowseError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *BrowseError) WithDetail(key string, value interface{}) *BrowseError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *BrowseError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new BrowseError
func New(code ErrorCode, message string) *BrowseError {
	return &BrowseError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a BrowseError
func Wrap(err error, code ErrorCode, message string) *BrowseError {
	return &BrowseError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific BrowseError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	browseErr, ok := err.(*BrowseError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	if browseErr.Code == code {
		return true
	}
	// A BrowseError may wrap another BrowseError with a more specific code
	return browseErr.Cause != nil && Is(browseErr.Cause, code)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	browseErr, ok := err.(*BrowseError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return browseErr.Code
}
