package sdrapi

import (
	"errors"
	"fmt"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

var (
	// ErrStreamActive is returned when a stream constructor finds another
	// live stream of the same direction on the device.
	ErrStreamActive = errors.New("a stream for this direction is already active")

	// ErrStreamClosed is returned by operations on a closed stream handle.
	ErrStreamClosed = errors.New("stream is closed")

	// ErrInvalidChannel is returned when a channel index is not present on
	// the device variant.
	ErrInvalidChannel = errors.New("channel not present on this device")

	// ErrUnknownPin is returned when an expansion board table does not
	// define a requested pin.
	ErrUnknownPin = errors.New("unknown expansion pin")
)

// ConfigurationError reports that the driver rejected a stream or pin setup.
// The construction attempt failed and no handle was produced.
type ConfigurationError struct {
	Status driver.Status
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("stream configuration rejected: %s", e.Status)
}

// TransferError reports a failed or timed out transfer. Recoverable; the
// caller may retry with the same buffer.
type TransferError struct {
	Status  driver.Status
	Timeout bool
}

func (e *TransferError) Error() string {
	if e.Timeout {
		return "transfer timed out"
	}
	return fmt.Sprintf("transfer failed: %s", e.Status)
}

// EnableError reports which channel failed to enable. On a dual-channel
// layout the first channel may already be enabled; callers must Disable to
// recover a clean state.
type EnableError struct {
	Channel driver.Channel
	Status  driver.Status
}

func (e *EnableError) Error() string {
	return fmt.Sprintf("failed to enable %s: %s", e.Channel, e.Status)
}

// DisableError reports which channel failed to disable. Same partial-failure
// exposure as EnableError on dual-channel layouts.
type DisableError struct {
	Channel driver.Channel
	Status  driver.Status
}

func (e *DisableError) Error() string {
	return fmt.Sprintf("failed to disable %s: %s", e.Channel, e.Status)
}

// DriverError wraps a raw driver status with no further classification.
type DriverError struct {
	Op     string
	Status driver.Status
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

func statusErr(op string, st driver.Status) error {
	if st.OK() {
		return nil
	}
	return &DriverError{Op: op, Status: st}
}
