package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/radiokit-dev/radiokit/internal/configsvc"
	"github.com/radiokit-dev/radiokit/internal/sdrsvc"
	"github.com/radiokit-dev/radiokit/internal/sdrsvc/linux"
	"github.com/radiokit-dev/radiokit/internal/sdrsvc/sim"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

type Agent struct {
	config Config

	db        *badger.DB
	configSvc *configsvc.Service
	sdrSvc    *sdrsvc.Service
}

// NewAgent wires the services. opener is the native driver binding used to
// open real radios; it is ignored in simulate mode.
func NewAgent(config Config, opener driver.Opener) (*Agent, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dbOptions := badger.DefaultOptions(filepath.Join(config.DataDir, "db"))
	dbOptions.Logger = &badgerLogger{l: logger.Named("badger")}

	db, err := badger.Open(dbOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	configSvc := configsvc.New(logger.Named("config"))

	var backend sdrsvc.Option
	if config.Simulate {
		backend = sdrsvc.WithBackend("sim", sim.NewBackend(logger.Named("sdr.sim")))
	} else {
		backend = sdrsvc.WithBackend("linux", linux.NewBackend(logger.Named("sdr.linux"), opener))
	}
	sdrSvc := sdrsvc.New(db, logger.Named("sdr"), time.Now, backend)

	return &Agent{
		config:    config,
		db:        db,
		configSvc: configSvc,
		sdrSvc:    sdrSvc,
	}, nil
}

func (a *Agent) Close() error {
	return multierr.Combine(a.db.Close())
}

type badgerLogger struct {
	l *zap.Logger
}

func (l badgerLogger) Errorf(msg string, args ...any) {
	l.l.Error(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Warningf(msg string, args ...any) {
	l.l.Warn(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Infof(msg string, args ...any) {
	l.l.Info(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Debugf(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}

// Run starts the agent and blocks until the context is cancelled. In case
// the preset file becomes invalid after startup the agent keeps running
// with the last valid presets.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.configSvc.Start(groupCtx)
	})
	group.Go(func() error {
		return a.sdrSvc.Start(groupCtx)
	})
	group.Go(func() error {
		select {
		case <-groupCtx.Done():
			return nil
		case <-a.configSvc.Ready():
		}
		initial, err := configsvc.Register(a.configSvc, a.config.PresetsConfig, sdrsvc.PresetsConfig{}, func(cfg sdrsvc.PresetsConfig, err error) {
			if err != nil {
				return
			}
			_ = a.sdrSvc.SetPresets(cfg)
		})
		if err != nil {
			return fmt.Errorf("failed to register preset config: %w", err)
		}
		return a.sdrSvc.SetPresets(initial)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	return nil
}

// SDR exposes the device service to front ends.
func (a *Agent) SDR() *sdrsvc.Service {
	return a.sdrSvc
}

func (a *Agent) Config() Config {
	return a.config
}
