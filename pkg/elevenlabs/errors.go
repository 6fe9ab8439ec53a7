package elevenlabs

import (
	"errors"
	"fmt"
)

// UnauthorizedError is returned when the API key is missing or rejected.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "elevenlabs: unauthorized"
	}
	return "elevenlabs: unauthorized: " + e.Message
}

// NotFoundError is returned when the addressed document does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("elevenlabs: %s not found", e.Resource)
}

// TransientNetworkError wraps transport failures, including timeouts.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("elevenlabs: %s: network error: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when a response that must be JSON cannot be decoded.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("elevenlabs: %s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// APIError covers every other non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("elevenlabs: API error (%d: %s): %s", e.StatusCode, e.Status, e.Body)
	}
	return fmt.Sprintf("elevenlabs: API error (%d: %s)", e.StatusCode, e.Status)
}

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target *TransientNetworkError
	return errors.As(err, &target)
}

func IsMalformed(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}
