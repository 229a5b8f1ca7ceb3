package mcp9808

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a temperature cannot be encoded into a register.
	ErrOutOfRange = errors.New("mcp9808: temperature out of range")
	// ErrInvalidMode is returned when a textual mode does not name a known setting.
	ErrInvalidMode = errors.New("mcp9808: invalid mode")
	// ErrLocked is returned when a lock bit freezes the alert bits, hysteresis or a boundary.
	ErrLocked = errors.New("mcp9808: alert configuration locked")
	// ErrUnknownDevice is returned by Identify when the ID registers do not match an MCP9808.
	ErrUnknownDevice = errors.New("mcp9808: unknown device")
)

// BusError reports a failed transport transaction together with the operation
// and the register it was addressed to. The transport error is kept unchanged.
type BusError struct {
	Op       string
	Register byte
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("mcp9808: %s: %s register (%#02x): %v", e.Op, registerName(e.Register), e.Register, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }
