package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSerialization  = errors.New("serialization failure")
	ErrTransport      = errors.New("transport failure")
	ErrMalformedInput = errors.New("malformed input")
	ErrReportNotFound = errors.New("report not found")
)

// TransportError is a failed alert delivery. A rejected response carries its
// status and body; a request that never got a response carries Err. It
// matches ErrTransport under errors.Is but does not unwrap to it, so the
// body or the underlying I/O error stays the deepest link of the chain.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.Body == "":
		return fmt.Sprintf("alert gateway returned status %d with empty body", e.Status)
	default:
		return e.Body
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
