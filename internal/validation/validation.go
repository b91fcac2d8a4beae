// Package validation carries input errors whose message is safe to return to
// API clients verbatim.
package validation

import "errors"

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(msg string) error {
	return &Error{Message: msg}
}

// Message returns the client-facing message if err wraps a validation Error.
func Message(err error) (string, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Message, true
	}

	return "", false
}
