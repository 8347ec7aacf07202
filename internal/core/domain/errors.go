package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidPayload     = errors.New("invalid upstream payload")
	ErrValidation         = errors.New("validation failed")
	ErrTransport          = errors.New("upstream unreachable")
	ErrUnknownChat        = errors.New("unknown chat kind")
)

// RemoteError is a non-2xx answer from the hosted backend.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream responded %d", e.Status)
	}
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
}

// Is reports a 401 answer as ErrUnauthenticated: the backend no longer
// accepts the session's token.
func (e *RemoteError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == 401
}

// ValidationError carries the human-readable field messages of a rejected form.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msg := e.Fields[0]
	for _, f := range e.Fields[1:] {
		msg += "; " + f
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
