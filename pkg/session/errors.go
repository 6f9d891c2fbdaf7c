package session

import (
	"errors"
	"fmt"
)

// ErrorType categorizes session failures.
type ErrorType string

const (
	// ErrConfiguration means the client is missing required configuration
	// (an API key). Fatal; never retried.
	ErrConfiguration ErrorType = "configuration_error"
	// ErrPermission means a capture device could not be opened.
	ErrPermission ErrorType = "permission_error"
	// ErrTransport is a connection-level failure reported by the live
	// channel. Ends the session; the user must reconnect.
	ErrTransport ErrorType = "transport_error"
	// ErrNotConnected means an operation needed a live session.
	ErrNotConnected ErrorType = "not_connected_error"
	// ErrAlreadyConnected means Connect was called with a session live.
	ErrAlreadyConnected ErrorType = "already_connected_error"
)

// Error is a typed session error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string) *Error {
	return &Error{Type: ErrConfiguration, Message: message}
}

// NewPermissionError wraps a device-access failure.
func NewPermissionError(message string, err error) *Error {
	return &Error{Type: ErrPermission, Message: message, Err: err}
}

// NewTransportError wraps a connection-level failure.
func NewTransportError(message string, err error) *Error {
	return &Error{Type: ErrTransport, Message: message, Err: err}
}

// NewNotConnectedError creates a not-connected error.
func NewNotConnectedError(message string) *Error {
	return &Error{Type: ErrNotConnected, Message: message}
}

// NewAlreadyConnectedError creates an already-connected error.
func NewAlreadyConnectedError(message string) *Error {
	return &Error{Type: ErrAlreadyConnected, Message: message}
}

// IsType reports whether err is a session Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}
