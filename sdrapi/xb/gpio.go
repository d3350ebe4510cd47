// Package xb exposes expansion-board GPIO pins as direction-tagged handles.
// An undirected Pin becomes an InputPin or OutputPin through a conversion
// that writes the hardware direction register; reading an output pin or
// writing an input pin does not compile. Every register write is masked to
// the single pin being addressed, since the registers are shared by all 32
// pins.
package xb

import (
	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// Level is the logic level of a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Mask returns the register bitmask of a 1-based pin number.
func Mask(pin uint8) uint32 {
	return 1 << (pin - 1)
}

func levelFromReg(pin uint8, reg uint32) Level {
	return (reg>>(pin-1))&1 == 1
}

type pin struct {
	num uint8
	drv driver.Device
}

// Pin is a GPIO pin whose direction has not been set. It must be converted
// with Input or Output before it can be used; the conversion consumes the
// handle and the old one must not be used afterwards.
type Pin struct {
	pin
}

// NewPin builds an undirected handle for a 1-based pin number. Board pin
// sets are the usual way to obtain pins; NewPin exists for custom boards.
func NewPin(dev sdrapi.Device, num uint8) Pin {
	return Pin{pin{num: num, drv: dev.Driver()}}
}

// Number returns the 1-based pin number.
func (p pin) Number() uint8 {
	return p.num
}

// Input clears the pin's direction bit and returns the input-typed handle.
// Only this pin's bit is touched.
func (p Pin) Input() (InputPin, error) {
	if st := p.drv.ExpansionDirMaskedWrite(Mask(p.num), 0); !st.OK() {
		return InputPin{}, &sdrapi.DriverError{Op: "set pin direction", Status: st}
	}
	return InputPin{p.pin}, nil
}

// Output sets the pin's direction bit and returns the output-typed handle.
func (p Pin) Output() (OutputPin, error) {
	if st := p.drv.ExpansionDirMaskedWrite(Mask(p.num), ^uint32(0)); !st.OK() {
		return OutputPin{}, &sdrapi.DriverError{Op: "set pin direction", Status: st}
	}
	return OutputPin{p.pin}, nil
}

// InputPin is a pin wired as input.
type InputPin struct {
	pin
}

// Read returns the pin's current logic level.
func (p InputPin) Read() (Level, error) {
	reg, st := p.drv.ExpansionGPIORead()
	if !st.OK() {
		return Low, &sdrapi.DriverError{Op: "read gpio", Status: st}
	}
	return levelFromReg(p.num, reg), nil
}

// OutputPin is a pin wired as output.
type OutputPin struct {
	pin
}

// Write drives the pin to the given level, leaving all other pins' bits
// untouched.
func (p OutputPin) Write(level Level) error {
	value := uint32(0)
	if level == High {
		value = ^uint32(0)
	}
	if st := p.drv.ExpansionGPIOMaskedWrite(Mask(p.num), value); !st.OK() {
		return &sdrapi.DriverError{Op: "write gpio", Status: st}
	}
	return nil
}
