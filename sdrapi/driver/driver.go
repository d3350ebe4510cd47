// Package driver defines the boundary to the native radio driver. Everything
// that performs an actual register or USB transaction lives behind the Device
// interface; this package only fixes the vocabulary (directions, channels,
// sample formats) and the status codes the native side reports.
package driver

import (
	"fmt"
	"time"
)

// Status is the raw result code of a driver call. Zero means success,
// negative values are failures mirroring the native library's error table.
type Status int

const (
	StatusOK          Status = 0
	StatusUnexpected  Status = -1
	StatusRange       Status = -2
	StatusInval       Status = -3
	StatusMem         Status = -4
	StatusIO          Status = -5
	StatusTimeout     Status = -6
	StatusNoDev       Status = -7
	StatusUnsupported Status = -8
	StatusWouldBlock  Status = -14
)

func (s Status) OK() bool {
	return s >= 0
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnexpected:
		return "unexpected failure"
	case StatusRange:
		return "value out of range"
	case StatusInval:
		return "invalid argument"
	case StatusMem:
		return "memory allocation failure"
	case StatusIO:
		return "file or device i/o failure"
	case StatusTimeout:
		return "operation timed out"
	case StatusNoDev:
		return "no device attached"
	case StatusUnsupported:
		return "operation not supported"
	case StatusWouldBlock:
		return "operation would block"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Direction selects the RX or TX signal path.
type Direction uint8

const (
	DirectionRx Direction = iota
	DirectionTx
)

func (d Direction) String() string {
	if d == DirectionTx {
		return "tx"
	}
	return "rx"
}

// Channel identifies one physical channel of one direction. The encoding
// matches the native library: rx(n) = n<<1, tx(n) = n<<1|1.
type Channel uint8

func RxChannel(n uint8) Channel { return Channel(n << 1) }
func TxChannel(n uint8) Channel { return Channel(n<<1 | 1) }

func (c Channel) Direction() Direction {
	if c&1 == 1 {
		return DirectionTx
	}
	return DirectionRx
}

// Index is the per-direction channel index (0 or 1).
func (c Channel) Index() uint8 {
	return uint8(c) >> 1
}

func (c Channel) String() string {
	return fmt.Sprintf("%s%d", c.Direction(), c.Index())
}

// Format is the on-the-wire sample encoding a stream is configured for.
type Format uint8

const (
	FormatSC16Q11 Format = iota
	FormatSC8Q7
)

// BytesPerSample returns the size of one I/Q sample in this format.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatSC8Q7:
		return 2
	default:
		return 4
	}
}

func (f Format) String() string {
	switch f {
	case FormatSC8Q7:
		return "sc8q7"
	default:
		return "sc16q11"
	}
}

// Device is the set of native calls the control layer is built on. Calls are
// synchronous and side-effect-complete on return. Implementations are
// provided by a native binding (or by drivertest in tests) and are not
// expected to be safe for concurrent use of the same direction.
type Device interface {
	// ConfigureStream writes the synchronous stream configuration for one
	// direction. A succeeding call replaces any previous configuration of
	// that direction.
	ConfigureStream(dir Direction, format Format, numBuffers, bufferSize, numTransfers uint32, timeout time.Duration) Status

	// Transfer moves exactly sampleCount samples of the configured format
	// through the given direction, blocking up to timeoutMs.
	Transfer(dir Direction, p []byte, sampleCount uint32, timeoutMs uint32) Status

	// SetChannelEnabled turns one channel's front end on or off.
	SetChannelEnabled(ch Channel, enabled bool) Status

	// Expansion GPIO access. Masked writes touch only the bits set in mask.
	ExpansionGPIORead() (uint32, Status)
	ExpansionGPIOMaskedWrite(mask, value uint32) Status
	ExpansionDirRead() (uint32, Status)
	ExpansionDirMaskedWrite(mask, value uint32) Status

	Close() Status
}

// Opener produces an open Device for a serial number. The concrete opener is
// the native binding's entry point and is injected into the device service.
type Opener interface {
	Open(serial string) (Device, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(serial string) (Device, error)

func (f OpenerFunc) Open(serial string) (Device, error) {
	return f(serial)
}
