package sdrapi

import (
	"time"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// TxStream is a live transmit stream, symmetric to RxStream.
type TxStream[F Sample, D Device] struct {
	*syncStream[F, D]
}

// ConfigureTx writes the synchronous TX configuration for a single-channel
// layout and returns the stream handle.
func ConfigureTx[F Sample, D Device](dev D, cfg StreamConfig, ch TxChan) (*TxStream[F, D], error) {
	core, err := newSyncStream[F](dev, txDirection, []driver.Channel{driver.TxChannel(uint8(ch))}, cfg)
	if err != nil {
		return nil, err
	}
	return &TxStream[F, D]{core}, nil
}

// ConfigureTxMIMO configures both TX channels at once. Restricted to
// dual-capable variants at compile time.
func ConfigureTxMIMO[F Sample, D DualDevice](dev D, cfg StreamConfig) (*TxStream[F, D], error) {
	core, err := newSyncStream[F](dev, txDirection, []driver.Channel{driver.TxChannel(0), driver.TxChannel(1)}, cfg)
	if err != nil {
		return nil, err
	}
	return &TxStream[F, D]{core}, nil
}

// Write blocks until exactly len(buf) samples were submitted or the timeout
// elapsed. No partial-write contract.
func (s *TxStream[F, D]) Write(buf []F, timeout time.Duration) error {
	return s.transfer(buf, timeout)
}

// ReconfigureTx consumes the stream and builds a new one, possibly with a
// different sample encoding. The old configuration is torn down strictly
// before the new one reaches the driver.
func ReconfigureTx[NF Sample, F Sample, D Device](s *TxStream[F, D], cfg StreamConfig, ch TxChan) (*TxStream[NF, D], error) {
	dev := s.dev
	s.Close()
	return ConfigureTx[NF](dev, cfg, ch)
}

// ReconfigureTxMIMO consumes the stream and reconfigures both TX channels
// with a possibly different sample encoding.
func ReconfigureTxMIMO[NF Sample, F Sample, D DualDevice](s *TxStream[F, D], cfg StreamConfig) (*TxStream[NF, D], error) {
	dev := s.dev
	s.Close()
	return ConfigureTxMIMO[NF](dev, cfg)
}
