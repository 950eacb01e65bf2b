package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for the protocol client.
var (
	// ErrTransport is wrapped by every TransportError.
	ErrTransport = errors.New("client: transport failure")

	// ErrUnexpectedStatus marks a response other than 200 OK.
	ErrUnexpectedStatus = errors.New("client: unexpected status")

	// ErrMalformedResponse means a view document could not be decoded.
	ErrMalformedResponse = errors.New("client: malformed response")

	// ErrNoDeviceID means the static view carried no Device/ID.
	ErrNoDeviceID = errors.New("client: device id not found")
)

// TransportError describes a failed exchange with the controller: either
// the request never completed (Err is set) or the status was not 200
// (StatusCode and Body are set).
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s %s: %v", ErrTransport, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%v: %s %s: status %d: %s", ErrTransport, e.Method, e.URL, e.StatusCode, e.Body)
}

// Unwrap exposes ErrTransport, plus ErrUnexpectedStatus or the network error.
func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport, ErrUnexpectedStatus}
}
