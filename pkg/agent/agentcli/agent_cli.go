package agentcli

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/radiokit-dev/radiokit/internal/sdrsvc"
	"github.com/radiokit-dev/radiokit/pkg/agent"
	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
	"github.com/radiokit-dev/radiokit/sdrapi/streamdsl"
	"github.com/radiokit-dev/radiokit/sdrapi/xb"
	"github.com/radiokit-dev/radiokit/sdrapi/xb/pinmap"
)

// Main runs the CLI without a native driver binding, so only simulated
// devices can be opened. Embedders that link a real driver should build
// their entry point on NewRootCmd instead.
func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	opener := driver.OpenerFunc(func(serial string) (driver.Device, error) {
		return nil, fmt.Errorf("no native driver binding is linked into this build")
	})
	cmd := NewRootCmd(filepath.Join(dir, "radiokit"), opener)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

type agentProvider func() *agent.Agent

func NewRootCmd(configDir string, opener driver.Opener) *cobra.Command {
	cfg := agent.Config{
		DataDir:       filepath.Join(configDir, "data"),
		PresetsConfig: filepath.Join(configDir, "presets.yml"),
	}
	// agent.yml adjusts the defaults; flags still win
	cfg, _ = agent.LoadConfig(filepath.Join(configDir, "agent.yml"), cfg)
	agentCmd := &cobra.Command{
		Use:   "radiokit-agent",
		Short: "RadioKit Agent",
		Long:  `The RadioKit Agent is a daemon that tracks SDR devices and exposes their streams and expansion pins.`,
	}
	var a *agent.Agent
	agentProvider := func() *agent.Agent {
		return a
	}
	agentCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory")
	agentCmd.PersistentFlags().StringVar(&cfg.PresetsConfig, "presets-config", cfg.PresetsConfig, "stream presets config file")
	agentCmd.PersistentFlags().BoolVar(&cfg.Simulate, "sim", cfg.Simulate, "use simulated devices instead of the native driver")
	agentCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		a, err = agent.NewAgent(cfg, opener)
		return err
	}
	agentCmd.AddCommand(NewRun(agentProvider))
	agentCmd.AddCommand(NewListDevices(agentProvider))
	agentCmd.AddCommand(NewGPIO(agentProvider))
	agentCmd.AddCommand(NewStream(agentProvider))
	return agentCmd
}

func NewRun(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the RadioKit Agent",
		Long:  `Runs the device tracker and preset watcher until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer agent().Close()
			return agent().Run(cmd.Context())
		},
	}
}

func NewListDevices(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List SDR devices",
		Long:  `List SDR devices that are or have been connected to the system.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer agent().Close()
			devices, err := agent().SDR().ListDevices()
			if err != nil {
				return err
			}
			jsonB, err := json.MarshalIndent(devices, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
}

// withDevice starts the device service, waits until the backend performed
// its first scan and hands an opened device to fn.
func withDevice(ctx context.Context, a *agent.Agent, addr sdrsvc.Address, fn func(dev sdrapi.Device) error) error {
	defer a.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.SDR().Start(ctx)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return fmt.Errorf("device service stopped before becoming ready")
	case <-a.SDR().Ready():
	}
	// the first scan is processed asynchronously, so give the device a
	// moment to show up
	deadline := time.Now().Add(2 * time.Second)
	var dev sdrapi.Device
	for {
		var err error
		dev, err = a.SDR().OpenDevice(addr)
		if err == nil {
			break
		}
		if !errors.Is(err, sdrsvc.ErrDeviceNotFound) || time.Now().After(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(50 * time.Millisecond):
		}
	}
	defer dev.Close()
	return fn(dev)
}

// resolvePin accepts either a raw pin number or a board-qualified name
// such as xb200 J16-1.
func resolvePin(board, name string) (uint8, error) {
	if board == "" {
		n, err := strconv.ParseUint(name, 10, 8)
		if err != nil || n < 1 || n > 32 {
			return 0, fmt.Errorf("invalid pin number %q", name)
		}
		return uint8(n), nil
	}
	b, err := pinmap.Lookup(board)
	if err != nil {
		return 0, err
	}
	num, ok := b.Pin(name)
	if !ok {
		return 0, fmt.Errorf("board %s has no pin %q: %w", board, name, sdrapi.ErrUnknownPin)
	}
	return num, nil
}

func NewGPIO(agent agentProvider) *cobra.Command {
	var board string
	cmd := &cobra.Command{
		Use:   "gpio",
		Short: "Read and drive expansion pins",
	}
	cmd.PersistentFlags().StringVar(&board, "board", "", "expansion board name used to resolve pin names (e.g. xb200)")

	get := &cobra.Command{
		Use:   "get <addr> <pin>",
		Short: "Read an expansion pin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := sdrsvc.ParseAddress(args[0])
			if err != nil {
				return err
			}
			num, err := resolvePin(board, args[1])
			if err != nil {
				return err
			}
			return withDevice(cmd.Context(), agent(), addr, func(dev sdrapi.Device) error {
				in, err := xb.NewPin(dev, num).Input()
				if err != nil {
					return err
				}
				level, err := in.Read()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), level)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <addr> <pin> <high|low>",
		Short: "Drive an expansion pin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := sdrsvc.ParseAddress(args[0])
			if err != nil {
				return err
			}
			num, err := resolvePin(board, args[1])
			if err != nil {
				return err
			}
			var level xb.Level
			switch strings.ToLower(args[2]) {
			case "high", "1":
				level = xb.High
			case "low", "0":
				level = xb.Low
			default:
				return fmt.Errorf("invalid level %q, want high or low", args[2])
			}
			return withDevice(cmd.Context(), agent(), addr, func(dev sdrapi.Device) error {
				out, err := xb.NewPin(dev, num).Output()
				if err != nil {
					return err
				}
				return out.Write(level)
			})
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func NewStream(agent agentProvider) *cobra.Command {
	var (
		output  string
		buffers uint32
		preset  string
	)
	cmd := &cobra.Command{
		Use:   "stream <addr> [spec]",
		Short: "Run a sample stream",
		Long: `Runs a receive or transmit stream described either inline, e.g.

  radiokit-agent stream sim:sim-solo-0 'rx(sc16q11, ch=0, timeout=500ms)'

or by a preset name from the presets config via --preset. Received
samples are written to --output as interleaved little-endian I/Q;
transmit streams read the same layout from --output.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := sdrsvc.ParseAddress(args[0])
			if err != nil {
				return err
			}
			a := agent()
			var req streamdsl.Request
			switch {
			case preset != "":
				// Presets are loaded by the running agent; a one-shot
				// invocation has to read them itself.
				if err := loadPresets(a); err != nil {
					return err
				}
				p, ok := a.SDR().Preset(preset)
				if !ok {
					return fmt.Errorf("unknown preset %q", preset)
				}
				req = p.Request
			case len(args) == 2:
				spec, err := streamdsl.Parse(args[1])
				if err != nil {
					return err
				}
				req, err = spec.Resolve()
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("either a stream spec or --preset is required")
			}
			return withDevice(cmd.Context(), a, addr, func(dev sdrapi.Device) error {
				file, err := openStreamFile(output, req.Direction)
				if err != nil {
					return err
				}
				defer file.Close()
				return runStream(dev, req, file, buffers)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "sample file (required)")
	cmd.Flags().Uint32Var(&buffers, "buffers", 16, "number of buffers to transfer")
	cmd.Flags().StringVar(&preset, "preset", "", "use a named preset instead of an inline spec")
	cmd.MarkFlagRequired("output")
	return cmd
}

func loadPresets(a *agent.Agent) error {
	data, err := os.ReadFile(a.Config().PresetsConfig)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read presets config: %w", err)
	}
	var cfg sdrsvc.PresetsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse presets config: %w", err)
	}
	return a.SDR().SetPresets(cfg)
}

func openStreamFile(path string, dir driver.Direction) (*os.File, error) {
	if dir == driver.DirectionRx {
		return os.Create(path)
	}
	return os.Open(path)
}

func runStream(dev sdrapi.Device, req streamdsl.Request, file *os.File, buffers uint32) error {
	switch {
	case req.Direction == driver.DirectionRx && req.Format == driver.FormatSC8Q7:
		return runRx[sdrapi.SC8Q7](dev, req, file, buffers)
	case req.Direction == driver.DirectionRx:
		return runRx[sdrapi.SC16Q11](dev, req, file, buffers)
	case req.Format == driver.FormatSC8Q7:
		return runTx[sdrapi.SC8Q7](dev, req, file, buffers)
	default:
		return runTx[sdrapi.SC16Q11](dev, req, file, buffers)
	}
}

func runRx[F sdrapi.Sample](dev sdrapi.Device, req streamdsl.Request, w io.Writer, buffers uint32) error {
	if req.MIMO {
		dd, ok := dev.(sdrapi.DualDevice)
		if !ok {
			return fmt.Errorf("device does not support dual-channel streaming")
		}
		stream, err := sdrapi.ConfigureRxMIMO[F](dd, req.Config)
		if err != nil {
			return err
		}
		return captureRx(stream, w, buffers, req.Config)
	}
	stream, err := sdrapi.ConfigureRx[F](dev, req.Config, sdrapi.RxChan(req.Channel))
	if err != nil {
		return err
	}
	return captureRx(stream, w, buffers, req.Config)
}

func captureRx[F sdrapi.Sample, D sdrapi.Device](stream *sdrapi.RxStream[F, D], w io.Writer, buffers uint32, cfg sdrapi.StreamConfig) error {
	defer stream.Close()
	if err := stream.Enable(); err != nil {
		return err
	}
	buf := make([]F, cfg.SamplesPerBuffer)
	for i := uint32(0); i < buffers; i++ {
		if err := stream.Read(buf, cfg.Timeout); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
			return err
		}
	}
	return stream.Disable()
}

func runTx[F sdrapi.Sample](dev sdrapi.Device, req streamdsl.Request, r io.Reader, buffers uint32) error {
	if req.MIMO {
		dd, ok := dev.(sdrapi.DualDevice)
		if !ok {
			return fmt.Errorf("device does not support dual-channel streaming")
		}
		stream, err := sdrapi.ConfigureTxMIMO[F](dd, req.Config)
		if err != nil {
			return err
		}
		return playbackTx(stream, r, buffers, req.Config)
	}
	stream, err := sdrapi.ConfigureTx[F](dev, req.Config, sdrapi.TxChan(req.Channel))
	if err != nil {
		return err
	}
	return playbackTx(stream, r, buffers, req.Config)
}

func playbackTx[F sdrapi.Sample, D sdrapi.Device](stream *sdrapi.TxStream[F, D], r io.Reader, buffers uint32, cfg sdrapi.StreamConfig) error {
	defer stream.Close()
	if err := stream.Enable(); err != nil {
		return err
	}
	buf := make([]F, cfg.SamplesPerBuffer)
	for i := uint32(0); i < buffers; i++ {
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return err
		}
		if err := stream.Write(buf, cfg.Timeout); err != nil {
			return err
		}
	}
	return stream.Disable()
}
