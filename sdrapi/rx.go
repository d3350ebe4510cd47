package sdrapi

import (
	"time"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// RxStream is a live receive stream. F fixes the sample encoding the
// hardware was configured for, so reads into a buffer of any other encoding
// do not compile. D is the device variant the stream is bound to.
type RxStream[F Sample, D Device] struct {
	*syncStream[F, D]
}

// ConfigureRx writes the synchronous RX configuration for a single-channel
// layout and returns the stream handle. It fails with ErrStreamActive if
// another RX stream is live on the device, with ErrInvalidChannel if the
// variant does not present ch, and with ConfigurationError if the driver
// rejects the setup.
func ConfigureRx[F Sample, D Device](dev D, cfg StreamConfig, ch RxChan) (*RxStream[F, D], error) {
	core, err := newSyncStream[F](dev, rxDirection, []driver.Channel{driver.RxChannel(uint8(ch))}, cfg)
	if err != nil {
		return nil, err
	}
	return &RxStream[F, D]{core}, nil
}

// ConfigureRxMIMO configures both RX channels at once. Only dual-capable
// variants satisfy DualDevice, so pairing this layout with a single-channel
// device is a compile error.
func ConfigureRxMIMO[F Sample, D DualDevice](dev D, cfg StreamConfig) (*RxStream[F, D], error) {
	core, err := newSyncStream[F](dev, rxDirection, []driver.Channel{driver.RxChannel(0), driver.RxChannel(1)}, cfg)
	if err != nil {
		return nil, err
	}
	return &RxStream[F, D]{core}, nil
}

// Read blocks until exactly len(buf) samples were received or the timeout
// elapsed. There is no partial-read contract: on success the full buffer was
// filled, on error the buffer contents are undefined.
func (s *RxStream[F, D]) Read(buf []F, timeout time.Duration) error {
	return s.transfer(buf, timeout)
}

// ReconfigureRx consumes the stream and builds a new one, possibly with a
// different sample encoding. Teardown of the old configuration always runs
// before the new configuration reaches the driver; a disabled stream would
// otherwise invalidate the freshly written configuration. The active channel
// is re-derived from ch.
func ReconfigureRx[NF Sample, F Sample, D Device](s *RxStream[F, D], cfg StreamConfig, ch RxChan) (*RxStream[NF, D], error) {
	dev := s.dev
	s.Close()
	return ConfigureRx[NF](dev, cfg, ch)
}

// ReconfigureRxMIMO consumes the stream and reconfigures both RX channels
// with a possibly different sample encoding.
func ReconfigureRxMIMO[NF Sample, F Sample, D DualDevice](s *RxStream[F, D], cfg StreamConfig) (*RxStream[NF, D], error) {
	dev := s.dev
	s.Close()
	return ConfigureRxMIMO[NF](dev, cfg)
}
