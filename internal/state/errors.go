package state

import "errors"

// Domain-specific errors for the device state model.
var (
	// ErrNotFound is returned by a Backend that holds no device document yet.
	ErrNotFound = errors.New("state: no stored device")

	// ErrInvalidDocument is returned when a persisted document cannot be decoded.
	ErrInvalidDocument = errors.New("state: invalid device document")

	// ErrConversion is returned when submitted text does not match a field's type.
	ErrConversion = errors.New("state: value conversion failed")
)
