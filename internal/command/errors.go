package command

import (
	"errors"
	"fmt"

	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Sentinel errors for classifying command failures with errors.Is.
var (
	// ErrParse marks a body that is not well-formed XML.
	ErrParse = errors.New("command: malformed XML")

	// ErrValidation marks a request or value that is structurally unacceptable.
	ErrValidation = errors.New("command: validation failed")

	// ErrTypeConversion marks text that cannot be converted to a field's type.
	ErrTypeConversion = errors.New("command: type conversion failed")

	// ErrReference marks a command naming a device or area that does not exist.
	ErrReference = errors.New("command: unresolved reference")
)

// ParseError reports a command body that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// ValidationError reports a missing body or an out-of-range value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TypeConversionError reports a value that does not match its field's type.
type TypeConversionError struct {
	Field string
	Value string
	Want  state.FieldType
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("%v: %s: %q is not a valid %s", ErrTypeConversion, e.Field, e.Value, e.Want)
}

func (e *TypeConversionError) Unwrap() error { return ErrTypeConversion }

// ReferenceError reports a command naming something that does not exist.
// These are never returned to protocol clients; they go to Diagnostics.
type ReferenceError struct {
	Op   string // command or update that carried the reference
	Kind string // "device", "heat area", "io device"
	Ref  string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%v: %s: %s %s not found", ErrReference, e.Op, e.Kind, e.Ref)
}

func (e *ReferenceError) Unwrap() error { return ErrReference }
