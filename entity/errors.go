package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNetwork         = errors.New("network error")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid ticket state")
	ErrUnknownCategory = errors.New("unknown status category")
	ErrNoSession       = errors.New("no active session")
)

// ServerError is a non-2xx response from a backend service. Kind is one of
// the sentinels above, so callers can use errors.Is.
type ServerError struct {
	StatusCode int
	Message    string
	Kind       error
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Message)
}

func (e *ServerError) Unwrap() error {
	return e.Kind
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// ClientValidationError is raised before any request is sent.
type ClientValidationError struct {
	Field   string
	Message string
}

func (e *ClientValidationError) Error() string {
	return e.Message
}

func (e *ClientValidationError) Is(target error) bool {
	return target == ErrValidation
}
