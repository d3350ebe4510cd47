// Package sdrsvc tracks the radios attached to the host. Pluggable backends
// report attach/detach events; the service keeps a persistent record per
// serial number, fans events out on a bus, and opens devices as typed
// sdrapi handles.
package sdrsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/pkg/bus"
	"github.com/radiokit-dev/radiokit/sdrapi"
)

// Address identifies one radio via the backend that reported it and its
// serial number.
type Address struct {
	Backend string `json:"backend"`
	Serial  string `json:"serial"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%s", a.Backend, a.Serial)
}

func ParseAddress(s string) (Address, error) {
	backend, serial, ok := strings.Cut(s, ":")
	if !ok || backend == "" || serial == "" {
		return Address{}, fmt.Errorf("invalid device address %q", s)
	}
	return Address{Backend: backend, Serial: serial}, nil
}

// Board names the device variant a backend detected.
type Board string

const (
	BoardSolo Board = "solo"
	BoardDuo  Board = "duo"
)

type (
	BackendBus       = bus.Bus[string, BackendEvent]
	BackendPublisher = bus.Publisher[BackendEvent]

	DeviceEventType uint8
	DeviceBusKey    struct {
		Type DeviceEventType
		Addr Address
	}
	DeviceBus   = bus.Bus[DeviceBusKey, DeviceEvent]
	DeviceEvent struct{}
)

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// BackendEvent is what a backend publishes when its view of the bus changes.
type BackendEvent struct {
	DevicesChanged *BackendEventDevicesChanged
}

type BackendEventDevicesChanged struct {
	Connected    []BackendDevice
	Disconnected []string
}

// BackendDevice describes one attached radio as seen by a backend.
type BackendDevice struct {
	Serial string `json:"serial"`
	Board  Board  `json:"board"`
	Model  string `json:"model"`
}

// Backend discovers radios and opens driver handles for them.
type Backend interface {
	Ready() <-chan struct{}
	Start(ctx context.Context, publisher BackendPublisher) error
	Open(serial string) (sdrapi.Device, error)
}

type serviceOptions struct {
	backends       map[string]Backend
	backoffTimeout time.Duration
}

type Option func(*serviceOptions)

func WithBackend(name string, backend Backend) Option {
	return func(o *serviceOptions) {
		o.backends[name] = backend
	}
}

func WithBackoffTimeout(d time.Duration) Option {
	return func(o *serviceOptions) {
		o.backoffTimeout = d
	}
}

type Service struct {
	log     *zap.Logger
	db      *badger.DB
	options serviceOptions
	now     func() time.Time
	ready   chan struct{}

	backendBus *BackendBus
	deviceBus  *DeviceBus
	connected  *xsync.MapOf[Address, BackendDevice]
	presets    *xsync.MapOf[string, Preset]
}

func New(db *badger.DB, log *zap.Logger, now func() time.Time, opts ...Option) *Service {
	options := serviceOptions{
		backends:       make(map[string]Backend),
		backoffTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		db:         db,
		log:        log,
		options:    options,
		now:        now,
		ready:      make(chan struct{}),
		backendBus: bus.NewBus[string, BackendEvent](log),
		deviceBus:  bus.NewBus[DeviceBusKey, DeviceEvent](log),
		connected:  xsync.NewMapOf[Address, BackendDevice](),
		presets:    xsync.NewMapOf[string, Preset](),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.backendBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start backend bus: %w", err)
	}
	if err := s.deviceBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start device bus: %w", err)
	}

	s.consumeEvents(ctx)

	for backendID := range s.options.backends {
		go s.runBackend(ctx, backendID)
	}
	for _, backend := range s.options.backends {
		select {
		case <-ctx.Done():
			return nil
		case <-backend.Ready():
		}
	}
	close(s.ready)
	s.log.Info("Service started")
	<-ctx.Done()
	return nil
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// SubscribeDevices returns device connect/disconnect events.
func (s *Service) SubscribeDevices(ctx context.Context, keys ...DeviceBusKey) <-chan bus.Message[DeviceBusKey, DeviceEvent] {
	return s.deviceBus.Subscribe(ctx, keys...)
}

func (s *Service) consumeEvents(ctx context.Context) {
	// subscribe before the backends start so their initial scan is not lost
	ch := s.backendBus.Subscribe(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-ch:
				s.handleBackendEvent(ctx, msg.Key, msg.Message)
			}
		}
	}()
}

func (s *Service) handleBackendEvent(ctx context.Context, backendID string, event BackendEvent) {
	if event.DevicesChanged == nil {
		return
	}
	s.log.Debug("devices changed", zap.String("backend", backendID))
	for _, serial := range event.DevicesChanged.Disconnected {
		s.onDisconnected(ctx, backendID, serial)
	}
	for _, dev := range event.DevicesChanged.Connected {
		s.onConnected(ctx, backendID, dev)
	}
}

func (s *Service) onDisconnected(ctx context.Context, backendID, serial string) {
	addr := Address{Backend: backendID, Serial: serial}
	s.connected.Delete(addr)
	s.log.Debug("device disconnected", zap.String("backend", backendID), zap.String("serial", serial))
	s.deviceBus.Publish(ctx, DeviceBusKey{Type: DeviceDisconnected, Addr: addr}, DeviceEvent{})
}

func (s *Service) onConnected(ctx context.Context, backendID string, bdev BackendDevice) {
	rec, err := s.initializeDevice(backendID, bdev)
	if err != nil {
		s.log.Error("failed to initialize device", zap.Error(err))
		return
	}
	s.log.Debug("device connected",
		zap.String("backend", backendID),
		zap.String("serial", rec.Address.Serial),
		zap.String("board", string(rec.Board)),
		zap.Time("firstSeenAt", rec.FirstSeenAt))
	s.connected.Store(rec.Address, bdev)
	s.deviceBus.Publish(ctx, DeviceBusKey{Type: DeviceConnected, Addr: rec.Address}, DeviceEvent{})
}

var ErrDeviceNotFound = errors.New("device not found")

// DeviceRecord is what the service persists per serial number.
type DeviceRecord struct {
	Address     Address   `json:"address"`
	Board       Board     `json:"board"`
	Model       string    `json:"model"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
	Connected   bool      `json:"connected"`
}

func deviceKey(address Address) []byte {
	return []byte(fmt.Sprintf("sdr/devices/%s/%s", address.Backend, address.Serial))
}

func (s *Service) initializeDevice(backendID string, bdev BackendDevice) (DeviceRecord, error) {
	var rec DeviceRecord
	now := s.now()
	err := s.db.Update(func(txn *badger.Txn) error {
		addr := Address{Backend: backendID, Serial: bdev.Serial}
		key := deviceKey(addr)
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			rec = DeviceRecord{}
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal device record: %w", err)
			}
		}
		rec.Address = addr
		rec.Board = bdev.Board
		rec.Model = bdev.Model
		if rec.FirstSeenAt.IsZero() {
			rec.FirstSeenAt = now
		}
		rec.LastSeenAt = now
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal device record: %w", err)
		}
		return txn.Set(key, b)
	})
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("failed to store device record: %w", err)
	}
	return rec, nil
}

// ListDevices returns every device the service has ever recorded, with the
// Connected flag reflecting the live backend view.
func (s *Service) ListDevices() ([]DeviceRecord, error) {
	var records []DeviceRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("sdr/devices/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec DeviceRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal device record: %w", err)
			}
			_, rec.Connected = s.connected.Load(rec.Address)
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Address.String() < records[j].Address.String()
	})
	return records, nil
}

// GetDevice returns the record of a connected device.
func (s *Service) GetDevice(addr Address) (DeviceRecord, error) {
	bdev, ok := s.connected.Load(addr)
	if !ok {
		return DeviceRecord{}, ErrDeviceNotFound
	}
	return DeviceRecord{
		Address:   addr,
		Board:     bdev.Board,
		Model:     bdev.Model,
		Connected: true,
	}, nil
}

// OpenDevice opens a connected radio as a typed device handle.
func (s *Service) OpenDevice(addr Address) (sdrapi.Device, error) {
	if _, ok := s.connected.Load(addr); !ok {
		return nil, ErrDeviceNotFound
	}
	backend, ok := s.options.backends[addr.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", addr.Backend)
	}
	dev, err := backend.Open(addr.Serial)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", addr, err)
	}
	return dev, nil
}

func (s *Service) runBackend(ctx context.Context, backendID string) {
	backend := s.options.backends[backendID]
	for {
		err := backend.Start(ctx, s.backendBus.CreatePublisher(backendID))
		if err != nil {
			s.log.Error("failed to start the backend", zap.String("backend", backendID), zap.Error(err))
		}
		t := time.NewTimer(s.options.backoffTimeout)
		// retry after backoff
		select {
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return
		case <-t.C:
		}
	}
}
