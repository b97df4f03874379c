package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Setup errors
const (
	// ErrCodeConfigRead indicates the configuration file is missing, unreadable or incomplete.
	ErrCodeConfigRead ErrorCode = "CONFIG_READ_ERROR"
	// ErrCodeAuth indicates the credential is malformed or the token failed verification.
	ErrCodeAuth ErrorCode = "AUTH_ERROR"
	// ErrCodeInvalidInput indicates the user input cannot be turned into a request.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Remote call errors
const (
	// ErrCodeTransport indicates a network failure or a non-success HTTP status.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeResponseShape indicates a response body without the expected fields.
	ErrCodeResponseShape ErrorCode = "RESPONSE_SHAPE_ERROR"
	// ErrCodeParseSkip indicates a stream fragment that could not be decoded and was skipped.
	ErrCodeParseSkip ErrorCode = "PARSE_SKIP"
	// ErrCodeTimeout indicates polling ran out of attempts or time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeTaskFailed indicates the remote async task reported failure.
	ErrCodeTaskFailed ErrorCode = "TASK_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected local failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport: true,
	ErrCodeTimeout:   true,
	ErrCodeInternal:  false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
