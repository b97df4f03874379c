package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// ConfigRead creates an error for a configuration source that could not be used.
func ConfigRead(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConfigRead, Message: fmt.Sprintf("cannot read configuration from %s", source),
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// MissingField creates a CONFIG_READ_ERROR naming a required configuration field.
func MissingField(section, field string) *AppError {
	return &AppError{
		Code: ErrCodeConfigRead, Message: fmt.Sprintf("missing required field %s in %s", field, section),
		Details: map[string]any{"section": section, "field": field},
	}
}

// Auth creates an error for a malformed credential or a token that failed verification.
func Auth(reason string) *AppError {
	return &AppError{Code: ErrCodeAuth, Message: reason}
}

// Transport creates an error for a failed remote call.
func Transport(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransport, Message: fmt.Sprintf("%s request failed", operation),
		Retryable: true, Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// ResponseShape creates an error for a response body lacking the expected fields.
func ResponseShape(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeResponseShape, Message: fmt.Sprintf("unexpected %s response", operation),
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// ParseSkip creates an error describing a stream fragment that was dropped.
func ParseSkip(fragment string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeParseSkip, Message: "stream fragment skipped",
		Details: map[string]any{"fragment": fragment}, Cause: cause,
	}
}

// PollTimeout creates an error for a task that did not finish within the polling bounds.
func PollTimeout(taskID string, attempts int) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("task %s did not finish after %d attempts", taskID, attempts),
		Retryable: true, Details: map[string]any{"task_id": taskID, "attempts": attempts},
	}
}

// TaskFailed creates an error for an async task whose remote status is FAIL.
func TaskFailed(taskID, status string) *AppError {
	return &AppError{
		Code: ErrCodeTaskFailed, Message: fmt.Sprintf("task %s finished with status %s", taskID, status),
		Details: map[string]any{"task_id": taskID, "task_status": status},
	}
}

// InvalidInput creates an error for user input that cannot be dispatched.
func InvalidInput(reason string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason)}
}

// Internal creates an error for an unexpected local failure.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "unexpected internal error", Cause: cause}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first AppError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Wrap converts err into an AppError, keeping an existing AppError untouched.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
