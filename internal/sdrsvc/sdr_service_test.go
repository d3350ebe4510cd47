package sdrsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/internal/sdrsvc"
	"github.com/radiokit-dev/radiokit/internal/sdrsvc/sim"
	"github.com/radiokit-dev/radiokit/sdrapi"
)

func newService(t *testing.T) (*sdrsvc.Service, context.Context) {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	svc := sdrsvc.New(db, log, time.Now,
		sdrsvc.WithBackend("sim", sim.NewBackend(log)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)
	select {
	case <-svc.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("service did not become ready")
	}
	return svc, ctx
}

func awaitConnected(t *testing.T, svc *sdrsvc.Service, addr sdrsvc.Address) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := svc.GetDevice(addr); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("device %s never connected", addr)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestListDevices(t *testing.T) {
	svc, _ := newService(t)
	addr := sdrsvc.Address{Backend: "sim", Serial: "sim-solo-0"}
	awaitConnected(t, svc, addr)
	awaitConnected(t, svc, sdrsvc.Address{Backend: "sim", Serial: "sim-duo-0"})

	devices, err := svc.ListDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)

	// sorted by address
	assert.Equal(t, "sim-duo-0", devices[0].Address.Serial)
	assert.Equal(t, sdrsvc.BoardDuo, devices[0].Board)
	assert.Equal(t, "sim-solo-0", devices[1].Address.Serial)
	assert.Equal(t, sdrsvc.BoardSolo, devices[1].Board)
	for _, dev := range devices {
		assert.True(t, dev.Connected)
		assert.False(t, dev.FirstSeenAt.IsZero())
	}
}

func TestOpenDevice(t *testing.T) {
	svc, _ := newService(t)

	addr := sdrsvc.Address{Backend: "sim", Serial: "sim-duo-0"}
	awaitConnected(t, svc, addr)

	dev, err := svc.OpenDevice(addr)
	require.NoError(t, err)
	defer dev.Close()
	require.Equal(t, "sim-duo-0", dev.Serial())

	_, ok := dev.(sdrapi.DualDevice)
	assert.True(t, ok, "duo should open as a dual-channel device")

	_, err = svc.OpenDevice(sdrsvc.Address{Backend: "sim", Serial: "nope"})
	assert.ErrorIs(t, err, sdrsvc.ErrDeviceNotFound)
}

func TestSoloOpensWithoutDualCapability(t *testing.T) {
	svc, _ := newService(t)

	addr := sdrsvc.Address{Backend: "sim", Serial: "sim-solo-0"}
	awaitConnected(t, svc, addr)

	dev, err := svc.OpenDevice(addr)
	require.NoError(t, err)
	defer dev.Close()

	_, ok := dev.(sdrapi.DualDevice)
	assert.False(t, ok, "solo must not satisfy the dual-channel interface")
}

func TestSubscribeDevices(t *testing.T) {
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	svc := sdrsvc.New(db, log, time.Now,
		sdrsvc.WithBackend("sim", sim.NewBackend(log)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	addr := sdrsvc.Address{Backend: "sim", Serial: "sim-solo-0"}
	sub := svc.SubscribeDevices(ctx, sdrsvc.DeviceBusKey{Type: sdrsvc.DeviceConnected, Addr: addr})
	go svc.Start(ctx)

	select {
	case msg := <-sub:
		assert.Equal(t, addr, msg.Key.Addr)
	case <-time.After(5 * time.Second):
		t.Fatal("no connect event received")
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := sdrsvc.ParseAddress("linux:abc123")
	require.NoError(t, err)
	assert.Equal(t, sdrsvc.Address{Backend: "linux", Serial: "abc123"}, addr)
	assert.Equal(t, "linux:abc123", addr.String())

	_, err = sdrsvc.ParseAddress("abc123")
	assert.Error(t, err)
}
