package configsvc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/internal/configsvc"
)

type testConfig struct {
	Name    string `json:"name"`
	Buffers int    `json:"buffers"`
}

func startService(t *testing.T) *configsvc.Service {
	t.Helper()
	svc := configsvc.New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)
	select {
	case <-svc.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("config service did not become ready")
	}
	return svc
}

func TestRegisterReadsInitialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: capture\nbuffers: 32\n"), 0o644))

	svc := startService(t)
	cfg, err := configsvc.Register(svc, path, testConfig{Buffers: 16}, func(testConfig, error) {})
	require.NoError(t, err)
	assert.Equal(t, "capture", cfg.Name)
	assert.Equal(t, 32, cfg.Buffers)
}

func TestRegisterMissingFileReturnsDefaults(t *testing.T) {
	svc := startService(t)
	def := testConfig{Name: "default", Buffers: 16}
	cfg, err := configsvc.Register(svc, filepath.Join(t.TempDir(), "absent.yml"), def, func(testConfig, error) {})
	require.NoError(t, err)
	assert.Equal(t, def, cfg)
}

func TestRegisterNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yml")
	require.NoError(t, os.WriteFile(path, []byte("buffers: 1\n"), 0o644))

	svc := startService(t)
	updates := make(chan testConfig, 1)
	_, err := configsvc.Register(svc, path, testConfig{}, func(cfg testConfig, err error) {
		if err == nil {
			select {
			case updates <- cfg:
			default:
			}
		}
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("buffers: 2\n"), 0o644))
	select {
	case cfg := <-updates:
		assert.Equal(t, 2, cfg.Buffers)
	case <-time.After(5 * time.Second):
		t.Fatal("no update received")
	}
}
