package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Command execution errors
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// Git failure classes recognized from exit status and stderr
	ErrCodeAuthFailed     ErrorCode = "AUTH_FAILED"
	ErrCodeMergeConflict  ErrorCode = "MERGE_CONFLICT"
	ErrCodePushRejected   ErrorCode = "PUSH_REJECTED"
	ErrCodeRepoNotFound   ErrorCode = "REPO_NOT_FOUND"
	ErrCodeRemoteNotFound ErrorCode = "REMOTE_NOT_FOUND"
	ErrCodeLockContention ErrorCode = "LOCK_CONTENTION"
	ErrCodeDetachedHead   ErrorCode = "DETACHED_HEAD"
	ErrCodeUnbornBranch   ErrorCode = "UNBORN_BRANCH"
	ErrCodeNoSuchRef      ErrorCode = "NO_SUCH_REF"

	// General errors
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// SyncError represents a structured error with context
type SyncError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`

	// Background marks failures from timer-triggered operations so the UI
	// layer can avoid interrupting the user for routine polling failures.
	Background bool `json:"background,omitempty"`
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SyncError) WithDetail(key string, value interface{}) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// AsBackground marks the error as originating from a background operation.
func (e *SyncError) AsBackground() *SyncError {
	e.Background = true
	return e
}

// ToJSON converts the error to JSON
func (e *SyncError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SyncError
func New(code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SyncError
func Wrap(err error, code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	syncErr, ok := err.(*SyncError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return syncErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	syncErr, ok := err.(*SyncError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return syncErr.Code
}

// IsFatal reports whether the error represents a broken programming invariant
// that should halt rather than be routed to the error surface.
func IsFatal(err error) bool {
	return GetCode(err) == ErrCodeInvariantViolation
}
