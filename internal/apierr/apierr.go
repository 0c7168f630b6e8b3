// Package apierr defines the error kinds shared by the HTTP and socket
// surfaces so that handlers return a result instead of throwing.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifies an error by failure category, not by Go type.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindCapacity
	KindDependency
	KindInternal
)

// Error is the single error type handlers return; Kind drives the wire
// rendering instead of callers inspecting dynamic types.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As extracts an *Error from err, synthesizing an Internal one for anything
// the caller didn't already classify.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: "internal error", Cause: err}
}

func (k Kind) httpStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindCapacity:
		return http.StatusTooManyRequests
	case KindDependency:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP is the single adapter mapping an Error to the wire response.
func WriteHTTP(w http.ResponseWriter, err error) {
	e := As(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.httpStatus())
	msg := e.Message
	if e.Kind == KindInternal {
		msg = "internal error"
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
