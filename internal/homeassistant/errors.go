package homeassistant

import (
	"errors"
	"fmt"
)

// Domain-specific errors for Home Assistant lookups.
var (
	// ErrRequest indicates the API could not be reached or answered with
	// a non-200 status.
	ErrRequest = errors.New("homeassistant: request failed")

	// ErrUnavailable indicates the entity reports "unavailable" or "unknown".
	ErrUnavailable = errors.New("homeassistant: entity unavailable")

	// ErrNotNumeric indicates neither the state nor the temperature
	// attribute parse as a number.
	ErrNotNumeric = errors.New("homeassistant: no numeric temperature")
)

// RequestError carries the failed call's details.
type RequestError struct {
	EntityID   string
	StatusCode int // 0 when no response arrived
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("homeassistant: GET state of %s: %v", e.EntityID, e.Err)
	}
	return fmt.Sprintf("homeassistant: GET state of %s: status %d", e.EntityID, e.StatusCode)
}

// Unwrap exposes ErrRequest and the transport error.
func (e *RequestError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRequest, e.Err}
	}
	return []error{ErrRequest}
}
