// Package sim is an sdrsvc backend that presents simulated radios backed by
// the drivertest fake. It exists so the agent and CLI can be exercised end
// to end on a machine with no hardware attached.
package sim

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/internal/sdrsvc"
	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver/drivertest"
)

type Backend struct {
	log     *zap.Logger
	devices []sdrsvc.BackendDevice
	open    *xsync.MapOf[string, *drivertest.Device]
	ready   chan struct{}
}

// NewBackend builds a simulated backend. With no explicit devices it
// presents one Solo and one Duo.
func NewBackend(log *zap.Logger, devices ...sdrsvc.BackendDevice) *Backend {
	if len(devices) == 0 {
		devices = []sdrsvc.BackendDevice{
			{Serial: "sim-solo-0", Board: sdrsvc.BoardSolo, Model: "Simulated Solo"},
			{Serial: "sim-duo-0", Board: sdrsvc.BoardDuo, Model: "Simulated Duo"},
		}
	}
	return &Backend{
		log:     log,
		devices: devices,
		open:    xsync.NewMapOf[string, *drivertest.Device](),
		ready:   make(chan struct{}),
	}
}

func (b *Backend) Ready() <-chan struct{} {
	return b.ready
}

func (b *Backend) Start(ctx context.Context, publisher sdrsvc.BackendPublisher) error {
	b.log.Info("Starting simulated SDR backend", zap.Int("devices", len(b.devices)))
	publisher(ctx, sdrsvc.BackendEvent{
		DevicesChanged: &sdrsvc.BackendEventDevicesChanged{
			Connected: b.devices,
		},
	})
	close(b.ready)
	<-ctx.Done()
	return nil
}

func (b *Backend) Open(serial string) (sdrapi.Device, error) {
	var bdev sdrsvc.BackendDevice
	found := false
	for _, d := range b.devices {
		if d.Serial == serial {
			bdev = d
			found = true
			break
		}
	}
	if !found {
		return nil, sdrsvc.ErrDeviceNotFound
	}
	// one fake per serial so registers persist across opens
	fake, _ := b.open.LoadOrCompute(serial, func() *drivertest.Device {
		return drivertest.New()
	})
	if bdev.Board == sdrsvc.BoardDuo {
		return sdrapi.NewDuo(fake, serial), nil
	}
	return sdrapi.NewSolo(fake, serial), nil
}
