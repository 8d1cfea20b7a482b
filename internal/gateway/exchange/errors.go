package exchange

import (
	"errors"
	"fmt"
)

// TransportError covers network failures, timeouts, non-2xx HTTP and
// authentication problems.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is a well-formed exchange response carrying a non-zero code.
type RejectionError struct {
	Endpoint string
	Code     string
	Message  string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected: %s (code %s)", e.Endpoint, e.Message, e.Code)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func AsRejection(err error) (*RejectionError, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
