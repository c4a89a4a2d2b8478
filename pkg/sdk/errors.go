package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is() to check.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream unavailable")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("collecta: %s (%d %s)", e.Message, e.StatusCode, e.Code)
}

// Unwrap maps well-known statuses to sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 404:
		return ErrNotFound
	case 400:
		return ErrInvalidInput
	case 401:
		return ErrUnauthorized
	case 502, 503:
		return ErrUpstream
	}
	return nil
}
