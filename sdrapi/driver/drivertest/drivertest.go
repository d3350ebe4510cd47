// Package drivertest provides a scripted in-memory implementation of
// driver.Device. It keeps mock GPIO registers, tracks per-channel enable
// state, records every call in order, and can be told to fail specific
// calls, which is enough to exercise the whole control layer without
// hardware attached.
package drivertest

import (
	"sync"
	"time"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

type streamConfig struct {
	Format       driver.Format
	NumBuffers   uint32
	BufferSize   uint32
	NumTransfers uint32
	Timeout      time.Duration
}

// Device is a fake driver.Device. The zero value is usable.
type Device struct {
	mu sync.Mutex

	calls   []string
	gpio    uint32
	gpioDir uint32

	configured map[driver.Direction]streamConfig
	enabled    map[driver.Channel]bool

	// failures maps a call name (as recorded in Calls) to the status the
	// next matching call should return. One-shot unless Sticky is used.
	failures map[string]driver.Status
	sticky   map[string]driver.Status

	// FillByte, when non-zero, is written into every RX transfer buffer.
	FillByte byte

	closed bool
}

func New() *Device {
	return &Device{
		configured: make(map[driver.Direction]streamConfig),
		enabled:    make(map[driver.Channel]bool),
		failures:   make(map[string]driver.Status),
		sticky:     make(map[string]driver.Status),
	}
}

// FailOnce makes the next call recorded under name return st.
func (d *Device) FailOnce(name string, st driver.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[name] = st
}

// FailAlways makes every call recorded under name return st.
func (d *Device) FailAlways(name string, st driver.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sticky[name] = st
}

// Calls returns the ordered call log.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// Enabled reports whether a channel is currently enabled.
func (d *Device) Enabled(ch driver.Channel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled[ch]
}

// Configured reports whether a direction has a live stream configuration.
func (d *Device) Configured(dir driver.Direction) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.configured[dir]
	return ok
}

// ConfiguredFormat returns the sample format a direction was last
// configured for.
func (d *Device) ConfiguredFormat(dir driver.Direction) (driver.Format, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, ok := d.configured[dir]
	return cfg.Format, ok
}

// SetGPIO seeds the mock GPIO value register.
func (d *Device) SetGPIO(v uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gpio = v
}

// GPIO returns the mock GPIO value register.
func (d *Device) GPIO() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gpio
}

// GPIODir returns the mock direction register.
func (d *Device) GPIODir() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gpioDir
}

func (d *Device) record(name string) driver.Status {
	d.calls = append(d.calls, name)
	if st, ok := d.sticky[name]; ok {
		return st
	}
	if st, ok := d.failures[name]; ok {
		delete(d.failures, name)
		return st
	}
	return driver.StatusOK
}

func (d *Device) ConfigureStream(dir driver.Direction, format driver.Format, numBuffers, bufferSize, numTransfers uint32, timeout time.Duration) driver.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.record("configure_" + dir.String())
	if !st.OK() {
		return st
	}
	d.configured[dir] = streamConfig{
		Format:       format,
		NumBuffers:   numBuffers,
		BufferSize:   bufferSize,
		NumTransfers: numTransfers,
		Timeout:      timeout,
	}
	return driver.StatusOK
}

func (d *Device) Transfer(dir driver.Direction, p []byte, sampleCount uint32, timeoutMs uint32) driver.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.record("transfer_" + dir.String())
	if !st.OK() {
		return st
	}
	cfg, ok := d.configured[dir]
	if !ok {
		return driver.StatusInval
	}
	if !d.anyEnabled(dir) {
		return driver.StatusInval
	}
	if int(sampleCount)*cfg.Format.BytesPerSample() > len(p) {
		return driver.StatusInval
	}
	if dir == driver.DirectionRx {
		for i := range p {
			p[i] = d.FillByte
		}
	}
	return driver.StatusOK
}

func (d *Device) anyEnabled(dir driver.Direction) bool {
	for ch, on := range d.enabled {
		if on && ch.Direction() == dir {
			return true
		}
	}
	return false
}

func (d *Device) SetChannelEnabled(ch driver.Channel, enabled bool) driver.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	verb := "disable_"
	if enabled {
		verb = "enable_"
	}
	st := d.record(verb + ch.String())
	if !st.OK() {
		return st
	}
	d.enabled[ch] = enabled
	if !enabled && !d.anyEnabled(ch.Direction()) {
		// disabling the last channel voids the stream configuration,
		// matching hardware behaviour
		delete(d.configured, ch.Direction())
	}
	return driver.StatusOK
}

func (d *Device) ExpansionGPIORead() (uint32, driver.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.record("gpio_read")
	return d.gpio, st
}

func (d *Device) ExpansionGPIOMaskedWrite(mask, value uint32) driver.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.record("gpio_masked_write")
	if !st.OK() {
		return st
	}
	d.gpio = (d.gpio &^ mask) | (value & mask)
	return driver.StatusOK
}

func (d *Device) ExpansionDirRead() (uint32, driver.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.record("gpio_dir_read")
	return d.gpioDir, st
}

func (d *Device) ExpansionDirMaskedWrite(mask, value uint32) driver.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.record("gpio_dir_masked_write")
	if !st.OK() {
		return st
	}
	d.gpioDir = (d.gpioDir &^ mask) | (value & mask)
	return driver.StatusOK
}

func (d *Device) Close() driver.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return d.record("close")
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
