package sdrsvc_test

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/internal/sdrsvc"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

func newPresetService(t *testing.T) *sdrsvc.Service {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sdrsvc.New(db, zap.NewNop(), time.Now)
}

func TestSetPresets(t *testing.T) {
	svc := newPresetService(t)

	err := svc.SetPresets(sdrsvc.PresetsConfig{Presets: []sdrsvc.PresetConfig{
		{Name: "capture", Stream: "rx(sc16q11, ch=1, buffers=32, timeout=500ms)"},
		{Name: "beacon", Stream: "tx(sc8q7, mimo)"},
	}})
	require.NoError(t, err)

	capture, ok := svc.Preset("capture")
	require.True(t, ok)
	assert.Equal(t, driver.DirectionRx, capture.Request.Direction)
	assert.Equal(t, driver.FormatSC16Q11, capture.Request.Format)
	assert.Equal(t, uint8(1), capture.Request.Channel)
	assert.Equal(t, uint32(32), capture.Request.Config.NumBuffers)
	assert.Equal(t, 500*time.Millisecond, capture.Request.Config.Timeout)

	beacon, ok := svc.Preset("beacon")
	require.True(t, ok)
	assert.Equal(t, driver.DirectionTx, beacon.Request.Direction)
	assert.True(t, beacon.Request.MIMO)

	_, ok = svc.Preset("missing")
	assert.False(t, ok)
}

func TestSetPresetsRejectsWholeUpdate(t *testing.T) {
	svc := newPresetService(t)

	require.NoError(t, svc.SetPresets(sdrsvc.PresetsConfig{Presets: []sdrsvc.PresetConfig{
		{Name: "capture", Stream: "rx(sc16q11)"},
	}}))

	err := svc.SetPresets(sdrsvc.PresetsConfig{Presets: []sdrsvc.PresetConfig{
		{Name: "good", Stream: "rx(sc8q7)"},
		{Name: "bad", Stream: "rx(ch=7)"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// last good table survives
	_, ok := svc.Preset("capture")
	assert.True(t, ok)
	_, ok = svc.Preset("good")
	assert.False(t, ok)
}
