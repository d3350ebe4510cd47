// Package sdrapi is the typed control layer over a radio device. It maps the
// mutable hardware capabilities (sample streams, expansion GPIO) onto handles
// whose legal operations are fixed by their type: a stream handle carries its
// sample encoding as a type parameter, dual-channel constructors only accept
// dual-capable device variants, and expansion pins change type when their
// direction changes. The actual register and USB traffic is behind
// sdrapi/driver.
package sdrapi

import (
	"go.uber.org/atomic"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// RxChan selects one physical RX channel.
type RxChan uint8

const (
	Rx0 RxChan = iota
	Rx1
)

// TxChan selects one physical TX channel.
type TxChan uint8

const (
	Tx0 TxChan = iota
	Tx1
)

// Device is implemented by all radio variants. Stream constructors take a
// Device; dual-channel constructors narrow the requirement to DualDevice so
// that pairing a dual layout with a single-channel variant does not compile.
type Device interface {
	// Serial returns the device serial number.
	Serial() string
	// Driver exposes the underlying driver boundary.
	Driver() driver.Device
	// Close releases the underlying driver handle. Any live streams must be
	// closed first.
	Close() error

	channelsPerDirection() uint8
	claim(dir driver.Direction) bool
	unclaim(dir driver.Direction)
}

// DualDevice is the capability marker for variants that can run both
// channels of a direction at once.
type DualDevice interface {
	Device
	dualChannelCapable()
}

type deviceState struct {
	drv    driver.Device
	serial string

	rxActive atomic.Bool
	txActive atomic.Bool
}

func (d *deviceState) Serial() string        { return d.serial }
func (d *deviceState) Driver() driver.Device { return d.drv }

func (d *deviceState) claim(dir driver.Direction) bool {
	if dir == driver.DirectionTx {
		return d.txActive.CompareAndSwap(false, true)
	}
	return d.rxActive.CompareAndSwap(false, true)
}

func (d *deviceState) unclaim(dir driver.Direction) {
	if dir == driver.DirectionTx {
		d.txActive.Store(false)
	} else {
		d.rxActive.Store(false)
	}
}

// Close releases the underlying driver handle. Any live streams must be
// closed first.
func (d *deviceState) Close() error {
	return statusErr("close device", d.drv.Close())
}

// Solo is a single-channel variant: one RX and one TX channel.
type Solo struct {
	deviceState
}

// NewSolo wraps an open driver handle as a single-channel device.
func NewSolo(drv driver.Device, serial string) *Solo {
	return &Solo{deviceState{drv: drv, serial: serial}}
}

func (d *Solo) channelsPerDirection() uint8 { return 1 }

// Duo is a dual-channel variant: two RX and two TX channels, able to run
// both channels of a direction simultaneously.
type Duo struct {
	deviceState
}

// NewDuo wraps an open driver handle as a dual-channel device.
func NewDuo(drv driver.Device, serial string) *Duo {
	return &Duo{deviceState{drv: drv, serial: serial}}
}

func (d *Duo) channelsPerDirection() uint8 { return 2 }
func (d *Duo) dualChannelCapable()         {}
