package sdrapi

import (
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// StreamConfig describes the synchronous transfer layout of one stream.
// It is immutable once a stream is built from it; Reconfigure takes a fresh
// value.
type StreamConfig struct {
	NumBuffers       uint32
	SamplesPerBuffer uint32
	NumTransfers     uint32
	Timeout          time.Duration
}

// DefaultStreamConfig returns the transfer layout used by the stock tools.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		NumBuffers:       16,
		SamplesPerBuffer: 8192,
		NumTransfers:     8,
		Timeout:          3500 * time.Millisecond,
	}
}

// directionDesc carries everything that differs between the RX and TX halves
// of the stream machinery: the driver direction and the two channels the
// hardware can present for it.
type directionDesc struct {
	dir      driver.Direction
	channels [2]driver.Channel
}

var (
	rxDirection = directionDesc{
		dir:      driver.DirectionRx,
		channels: [2]driver.Channel{driver.RxChannel(0), driver.RxChannel(1)},
	}
	txDirection = directionDesc{
		dir:      driver.DirectionTx,
		channels: [2]driver.Channel{driver.TxChannel(0), driver.TxChannel(1)},
	}
)

// syncStream is the direction-independent core of a stream handle. At most
// one live syncStream exists per direction per device; the constructor
// claims the direction and Close releases it.
type syncStream[F Sample, D Device] struct {
	dev    D
	desc   directionDesc
	active []driver.Channel
	config StreamConfig
	closed atomic.Bool
}

func newSyncStream[F Sample, D Device](dev D, desc directionDesc, active []driver.Channel, cfg StreamConfig) (*syncStream[F, D], error) {
	for _, ch := range active {
		if ch.Index() >= dev.channelsPerDirection() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidChannel, ch)
		}
	}
	if !dev.claim(desc.dir) {
		return nil, ErrStreamActive
	}
	s := &syncStream[F, D]{
		dev:    dev,
		desc:   desc,
		active: active,
		config: cfg,
	}
	if st := s.writeConfig(); !st.OK() {
		dev.unclaim(desc.dir)
		return nil, &ConfigurationError{Status: st}
	}
	return s, nil
}

func (s *syncStream[F, D]) writeConfig() driver.Status {
	return s.dev.Driver().ConfigureStream(
		s.desc.dir,
		formatOf[F](),
		s.config.NumBuffers,
		s.config.SamplesPerBuffer,
		s.config.NumTransfers,
		s.config.Timeout,
	)
}

// Config returns the stream configuration the handle was built from.
func (s *syncStream[F, D]) Config() StreamConfig {
	return s.config
}

// Channels returns the channels of the configured layout in enable order.
func (s *syncStream[F, D]) Channels() []driver.Channel {
	out := make([]driver.Channel, len(s.active))
	copy(out, s.active)
	return out
}

// Enable re-asserts the stored configuration (a prior Disable voids the
// hardware configuration state) and then turns on the layout channels in
// fixed order. On a dual layout a failure on the second channel leaves the
// first one enabled; the returned EnableError names the failed channel and
// the caller must Disable to get back to a clean state.
func (s *syncStream[F, D]) Enable() error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	if st := s.writeConfig(); !st.OK() {
		return &ConfigurationError{Status: st}
	}
	for _, ch := range s.active {
		if st := s.dev.Driver().SetChannelEnabled(ch, true); !st.OK() {
			return &EnableError{Channel: ch, Status: st}
		}
	}
	return nil
}

// Disable turns off the layout channels. Same partial-failure exposure as
// Enable on dual layouts.
func (s *syncStream[F, D]) Disable() error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	for _, ch := range s.active {
		if st := s.dev.Driver().SetChannelEnabled(ch, false); !st.OK() {
			return &DisableError{Channel: ch, Status: st}
		}
	}
	return nil
}

// Close tears the stream down and releases the direction for a new
// configuration. Both possible channels of the direction are disabled
// best-effort, errors discarded: the device may already be disabled or may
// not present the second channel at all. Close is idempotent.
func (s *syncStream[F, D]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	for _, ch := range s.desc.channels {
		s.dev.Driver().SetChannelEnabled(ch, false)
	}
	s.dev.unclaim(s.desc.dir)
}

func (s *syncStream[F, D]) transfer(buf []F, timeout time.Duration) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}
	st := s.dev.Driver().Transfer(s.desc.dir, sampleBytes(buf), uint32(len(buf)), uint32(timeout.Milliseconds()))
	switch {
	case st == driver.StatusTimeout:
		return &TransferError{Status: st, Timeout: true}
	case !st.OK():
		return &TransferError{Status: st}
	}
	return nil
}
