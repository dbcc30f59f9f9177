// Package core defines the PDU model, the dissector registry, sessions and
// the sniff/transmit facades shared by every protocol and capture codec.
package core

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// Capture errors
	ErrMalformedCapture = errors.New("pdukit: malformed capture")
	ErrSourceClosed     = errors.New("pdukit: source closed")

	// Transmit errors
	ErrUnknownLinkType = errors.New("pdukit: unknown link type")

	// Registry errors
	ErrRegistryFrozen     = errors.New("pdukit: registry frozen")
	ErrDuplicateDissector = errors.New("pdukit: dissector already registered")
	ErrDuplicateLinkType  = errors.New("pdukit: link type already registered")
	ErrUnknownTable       = errors.New("pdukit: unknown dissector table")
	ErrNoDissector        = errors.New("pdukit: no dissector")

	// PDU tree errors
	ErrPDUCycle = errors.New("pdukit: pdu cycle")
)

// UserError carries an opaque error raised by a decoder or sink.
type UserError struct {
	Err error
}

func (e *UserError) Error() string { return fmt.Sprintf("pdukit: %v", e.Err) }
func (e *UserError) Unwrap() error { return e.Err }

// Malformed wraps a structural capture error with context.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCapture, fmt.Sprintf(format, args...))
}
