package dispatch

import (
	"errors"
	"fmt"
)

// ErrTransportUnavailable means the configured transport has no usable
// capability behind it (e.g. bluetooth configured, no device handle
// injected). The caller may reconfigure; the router never falls through
// to another transport on its own.
var ErrTransportUnavailable = errors.New("transport unavailable")

// ErrBusy means a dispatch was attempted while another was in flight.
var ErrBusy = errors.New("printer busy")

// Phase identifies where in a dispatch attempt a failure occurred.
type Phase string

const (
	// PhaseEncode is receipt encoding (before any I/O).
	PhaseEncode Phase = "encode"

	// PhaseConnect is transport selection and connection.
	PhaseConnect Phase = "connect"

	// PhaseSend is writing the encoded bytes.
	PhaseSend Phase = "send"

	// PhasePresent is handing the fallback document to the local
	// surface.
	PhasePresent Phase = "present"
)

// DispatchError reports a failed delivery attempt with enough detail
// (which transport, which phase) for the UI to show an actionable
// message. A DispatchError never implies another transport was tried.
type DispatchError struct {
	Transport TransportKind
	Phase     Phase
	Err       error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch via %s: %s: %v", e.Transport, e.Phase, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDispatchError returns true if the error is a delivery failure.
// Uses errors.As to handle wrapped errors.
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}
