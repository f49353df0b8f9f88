package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy for calls against the store. Match with errors.Is.
var (
	ErrTransport    = errors.New("transport failure")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("rejected by store")
	ErrRemote       = errors.New("store error")
)

type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Details is the store's human readable "details" field, if any.
	Details string
	// Message is its terser "error" or "message" field.
	Message string
	kind    error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if d := firstNonEmpty(e.Details, e.Message); d != "" {
		msg += ": " + d
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.kind }

func kindFor(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity || code == http.StatusConflict:
		return ErrValidation
	default:
		return ErrRemote
	}
}

// Details returns the store's explanation carried by err, or "".
func Details(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Details
	}
	return ""
}

// LoginError carries the message to show the person signing in.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }
