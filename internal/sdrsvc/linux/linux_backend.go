// Package linux discovers radios on the USB bus via udev. It polls the
// enumeration the way hotplug-agnostic tools do, publishing connect and
// disconnect diffs to the device service.
package linux

import (
	"context"
	"fmt"
	"time"

	"github.com/jochenvg/go-udev"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/internal/sdrsvc"
	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

type backendOptions struct {
	pollInterval time.Duration
	vendorID     string
	products     map[string]sdrsvc.Board
}

type Option func(*backendOptions)

func WithPollInterval(d time.Duration) Option {
	return func(o *backendOptions) {
		o.pollInterval = d
	}
}

// WithProduct adds a USB product ID to board mapping.
func WithProduct(productID string, board sdrsvc.Board) Option {
	return func(o *backendOptions) {
		o.products[productID] = board
	}
}

// Backend implements sdrsvc.Backend for Linux using udev enumeration and an
// injected native opener.
type Backend struct {
	log     *zap.Logger
	options backendOptions
	opener  driver.Opener

	devices *xsync.MapOf[string, sdrsvc.BackendDevice]

	udev  *udev.Udev
	ready chan struct{}

	publisher sdrsvc.BackendPublisher
}

func NewBackend(log *zap.Logger, opener driver.Opener, opts ...Option) *Backend {
	options := backendOptions{
		pollInterval: 1 * time.Second,
		vendorID:     "2cf0",
		products: map[string]sdrsvc.Board{
			"5246": sdrsvc.BoardSolo,
			"5250": sdrsvc.BoardDuo,
		},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Backend{
		log:     log,
		options: options,
		opener:  opener,
		devices: xsync.NewMapOf[string, sdrsvc.BackendDevice](),
		ready:   make(chan struct{}),
	}
}

func (b *Backend) Ready() <-chan struct{} {
	return b.ready
}

func (b *Backend) Start(ctx context.Context, publisher sdrsvc.BackendPublisher) error {
	b.udev = &udev.Udev{}
	b.publisher = publisher

	b.log.Info("Starting Linux SDR backend")
	if err := b.refresh(ctx); err != nil {
		return err
	}
	close(b.ready)

	ticker := time.NewTicker(b.options.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.refresh(ctx); err != nil {
				b.log.Error("failed to refresh device list", zap.Error(err))
			}
		}
	}
}

func (b *Backend) refresh(ctx context.Context) error {
	seen, err := b.scan()
	if err != nil {
		return err
	}

	var event sdrsvc.BackendEventDevicesChanged
	for serial, dev := range seen {
		if _, ok := b.devices.Load(serial); !ok {
			b.devices.Store(serial, dev)
			event.Connected = append(event.Connected, dev)
		}
	}
	b.devices.Range(func(serial string, _ sdrsvc.BackendDevice) bool {
		if _, ok := seen[serial]; !ok {
			b.devices.Delete(serial)
			event.Disconnected = append(event.Disconnected, serial)
		}
		return true
	})

	if len(event.Connected) > 0 || len(event.Disconnected) > 0 {
		b.publisher(ctx, sdrsvc.BackendEvent{DevicesChanged: &event})
	}
	return nil
}

func (b *Backend) scan() (map[string]sdrsvc.BackendDevice, error) {
	e := b.udev.NewEnumerate()
	e.AddMatchSubsystem("usb")
	e.AddMatchProperty("ID_VENDOR_ID", b.options.vendorID)
	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate usb devices: %w", err)
	}

	seen := make(map[string]sdrsvc.BackendDevice)
	for _, d := range devices {
		board, ok := b.options.products[d.PropertyValue("ID_MODEL_ID")]
		if !ok {
			continue
		}
		serial := d.PropertyValue("ID_SERIAL_SHORT")
		if serial == "" {
			continue
		}
		seen[serial] = sdrsvc.BackendDevice{
			Serial: serial,
			Board:  board,
			Model:  d.PropertyValue("ID_MODEL"),
		}
	}
	return seen, nil
}

// Open opens a discovered radio through the native binding and wraps it as
// the variant the USB descriptor announced.
func (b *Backend) Open(serial string) (sdrapi.Device, error) {
	bdev, ok := b.devices.Load(serial)
	if !ok {
		return nil, sdrsvc.ErrDeviceNotFound
	}
	drv, err := b.opener.Open(serial)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", serial, err)
	}
	switch bdev.Board {
	case sdrsvc.BoardDuo:
		return sdrapi.NewDuo(drv, serial), nil
	default:
		return sdrapi.NewSolo(drv, serial), nil
	}
}
