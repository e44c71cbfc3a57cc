package chatroom

import "errors"

// ErrorKind classifies a client-facing failure.
type ErrorKind string

const (
	// ErrorKindValidation marks bad input (username, text, emoji).
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindUnauthorized marks a call whose claimed username does
	// not match the calling connection's registered identity.
	ErrorKindUnauthorized ErrorKind = "unauthorized"
	// ErrorKindNotFound marks an operation on an unknown message id.
	ErrorKindNotFound ErrorKind = "not_found"
)

// Error is a typed client-facing failure. Handlers return it as a
// structured result instead of letting it escape to the transport.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewValidationError returns a validation failure.
func NewValidationError(msg string) *Error {
	return &Error{Kind: ErrorKindValidation, Message: msg}
}

// NewUnauthorizedError returns an authorization failure.
func NewUnauthorizedError(msg string) *Error {
	return &Error{Kind: ErrorKindUnauthorized, Message: msg}
}

// NewNotFoundError returns a not-found failure.
func NewNotFoundError(msg string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: msg}
}

// KindOf extracts the ErrorKind from err, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

var (
	// ErrMessageNotFound indicates the message id is unknown to the store.
	ErrMessageNotFound = errors.New("message not found")
	// ErrNotConnected indicates the calling connection never joined the room.
	ErrNotConnected = errors.New("connection not joined")
)
