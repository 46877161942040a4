package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnexpectedStatus is wrapped by RequestError for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrRejected is wrapped by RequestError when a 2xx body reports failure.
	ErrRejected = errors.New("rejected by backend")
)

// RequestError reports a failed backend call: transport failure, timeout or a
// non-2xx response.
type RequestError struct {
	// Op names the call, e.g. "GET /budget/1".
	Op string
	// Status is the HTTP status, 0 when no response arrived.
	Status int
	// Message is the backend's error text when the body carried one.
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": request failed"
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *RequestError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// BackendMessage returns the backend-supplied message carried by err, if any.
func BackendMessage(err error) string {
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	return ""
}

// Rejected reports a call that succeeded at the HTTP level but whose body
// carried a non-success status.
func Rejected(op, message string) error {
	return &RequestError{Op: op, Message: message, Err: ErrRejected}
}
