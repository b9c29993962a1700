package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, fe := range err.Fields {
		m[fe.Field] = fe.Error
	}
	return m
}

// RequestError is returned for every failed call to the remote API.
// Status is 0 when no response was received.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func NewRequestError(status int, msg string) error {
	return &RequestError{Status: status, Message: msg}
}

func (err RequestError) Error() string {
	if err.Message != "" {
		return err.Message
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	if txt := http.StatusText(err.Status); txt != "" {
		return txt
	}
	return "request failed"
}

func (err RequestError) Unwrap() error { return err.Err }

// IsUnauthorized reports whether err is a 401 from the remote API.
func IsUnauthorized(err error) bool {
	reqErr, ok := errors.Cause(err).(*RequestError)
	return ok && reqErr.Status == http.StatusUnauthorized
}

// ErrorMessage returns the server-provided message carried by err, or fallback.
func ErrorMessage(err error, fallback string) string {
	if reqErr, ok := errors.Cause(err).(*RequestError); ok && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
