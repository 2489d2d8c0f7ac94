package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeCredential means the caller supplied no usable credentials:
	// neither a token nor a complete username/password pair.
	ErrorTypeCredential ErrorType = "credential"
	// ErrorTypeAuthentication means the password-grant exchange failed.
	// Never retried: repeated failed logins risk account lockout.
	ErrorTypeAuthentication ErrorType = "authentication"
	// ErrorTypeTransport covers connection/TLS failures and non-2xx
	// responses from the platform.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeDecode means the response body was not valid JSON.
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeUpstream means the platform returned a JSON body carrying
	// its own error field.
	ErrorTypeUpstream ErrorType = "upstream"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error without an HTTP status code.
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode creates a typed error carrying an HTTP status code.
func NewWithCode(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t ErrorType) bool {
	e, ok := err.(*Error)
	return ok && e.Type == t
}

// IsFatal reports whether an error type must abort the whole operation
// rather than a single page fetch. Credential and authentication failures
// are fatal; per-page transport and decode failures only end the stream
// they occurred in.
func IsFatal(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	switch e.Type {
	case ErrorTypeCredential, ErrorTypeAuthentication:
		return true
	default:
		return false
	}
}

// IsStreamEnding reports whether an error terminates the enclosing stream
// cleanly. Everything except nil qualifies; the distinction from IsFatal is
// whether already-yielded items remain usable by the consumer.
func IsStreamEnding(err error) bool {
	return err != nil
}
