package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// FaultKind distinguishes the network-layer failures of an outbound call.
type FaultKind string

const (
	FaultConnectionRefused FaultKind = "CONNECTION_REFUSED"
	FaultConnectionReset   FaultKind = "CONNECTION_RESET"
	FaultTimeout           FaultKind = "TIMEOUT"
)

func (k FaultKind) String() string { return string(k) }

// Message returns the user-facing message for the fault kind.
func (k FaultKind) Message() string {
	switch k {
	case FaultConnectionReset:
		return "Connection reset by peer"
	case FaultTimeout:
		return "Timeout Encountered"
	default:
		return "Connection failed"
	}
}

// Title returns the user-facing dialog title for the fault kind.
func (k FaultKind) Title() string {
	if k == FaultTimeout {
		return "Timeout Error"
	}
	return "Connection Error"
}

// Fault is a network-layer failure: the call never completed, so there is no
// response body to classify.
type Fault struct {
	Kind  FaultKind
	Cause error
}

func (f *Fault) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.Cause == nil {
		return fmt.Sprintf("transport fault: %s", f.Kind)
	}
	return fmt.Sprintf("transport fault: %s: %v", f.Kind, f.Cause)
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Cause
}

// classifyFault maps a client error onto the fault taxonomy. Timeouts are
// checked first since a dial that exceeds its deadline reports as both.
// Errors outside the taxonomy report ok=false and stay unclassified.
func classifyFault(err error) (*Fault, bool) {
	if err == nil {
		return nil, false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Fault{Kind: FaultTimeout, Cause: err}, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Fault{Kind: FaultTimeout, Cause: err}, true
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return &Fault{Kind: FaultConnectionReset, Cause: err}, true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Fault{Kind: FaultConnectionRefused, Cause: err}, true
	}

	// Any other dial-phase failure (unreachable host, DNS) is a connection
	// establishment fault.
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &Fault{Kind: FaultConnectionRefused, Cause: err}, true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Fault{Kind: FaultConnectionRefused, Cause: err}, true
	}

	return nil, false
}
