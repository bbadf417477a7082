package core

import (
	"fmt"
)

// ErrorCategory classifies an error for reporting and recovery decisions.
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryConfig                          // Unknown device, malformed configuration
	ErrCategoryConnection                      // Session creation or transport failure
	ErrCategoryCapture                         // Screenshot/hierarchy fetch failed mid-call
	ErrCategoryAsset                           // Coordinate/image asset missing
	ErrCategoryGesture                         // Gesture parameter validation failed
	ErrCategoryRecording                       // Illegal recording state transition
	ErrCategoryTimeout                         // Client-side timeout elapsed
)

// String returns the string representation of ErrorCategory.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryCapture:
		return "capture"
	case ErrCategoryAsset:
		return "asset"
	case ErrCategoryGesture:
		return "gesture"
	case ErrCategoryRecording:
		return "recording"
	case ErrCategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// AutomationError represents a structured error with category and details.
// Every error raised against a device carries the logical device name and the
// operation attempted in Details, so multi-device failures stay attributable.
type AutomationError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: unknown_device, capture_failed, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context: device, operation, ...
	Cause    error                  // Underlying error
}

// Error implements the error interface.
func (e *AutomationError) Error() string {
	msg := e.Message
	if device, ok := e.Details["device"].(string); ok && device != "" {
		msg = fmt.Sprintf("%s [device=%s]", msg, device)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AutomationError) Unwrap() error {
	return e.Cause
}

// Is matches any AutomationError with the same code, so wrapped copies still
// satisfy errors.Is against the sentinels below.
func (e *AutomationError) Is(target error) bool {
	t, ok := target.(*AutomationError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *AutomationError) WithCause(cause error) *AutomationError {
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *AutomationError) WithMessage(msg string) *AutomationError {
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details merged in.
func (e *AutomationError) WithDetails(details map[string]interface{}) *AutomationError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// WithDevice returns a copy of the error tagged with the logical device name
// and the operation attempted.
func (e *AutomationError) WithDevice(device, operation string) *AutomationError {
	return e.WithDetails(map[string]interface{}{
		"device":    device,
		"operation": operation,
	})
}

// Predefined errors covering the library's failure taxonomy.
var (
	ErrUnknownDevice = &AutomationError{
		Category: ErrCategoryConfig,
		Code:     "unknown_device",
		Message:  "no configuration entry for device",
	}
	ErrSessionStart = &AutomationError{
		Category: ErrCategoryConnection,
		Code:     "session_start_failed",
		Message:  "could not start automation session",
	}
	ErrCapture = &AutomationError{
		Category: ErrCategoryCapture,
		Code:     "capture_failed",
		Message:  "screen capture or hierarchy fetch failed",
	}
	ErrAssetNotFound = &AutomationError{
		Category: ErrCategoryAsset,
		Code:     "asset_not_found",
		Message:  "asset not found",
	}
	ErrInvalidGestureParameter = &AutomationError{
		Category: ErrCategoryGesture,
		Code:     "invalid_gesture_parameter",
		Message:  "invalid gesture parameter",
	}
	ErrRecordingAlreadyActive = &AutomationError{
		Category: ErrCategoryRecording,
		Code:     "recording_already_active",
		Message:  "a screen recording is already active",
	}
	ErrInvalidRecordingState = &AutomationError{
		Category: ErrCategoryRecording,
		Code:     "invalid_recording_state",
		Message:  "operation not valid in current recording state",
	}
	ErrCommandTimeout = &AutomationError{
		Category: ErrCategoryTimeout,
		Code:     "command_timeout",
		Message:  "shell command did not return in time",
	}
)

// NewAutomationError creates a new AutomationError with the given parameters.
func NewAutomationError(category ErrorCategory, code, message string) *AutomationError {
	return &AutomationError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
