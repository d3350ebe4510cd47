package streamdsl

import (
	"fmt"
	"time"

	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// Request is a resolved stream description, ready to hand to the sdrapi
// constructors.
type Request struct {
	Direction driver.Direction
	Format    driver.Format
	MIMO      bool
	Channel   uint8
	Config    sdrapi.StreamConfig
}

// Resolve validates the parse tree and fills in defaults from
// sdrapi.DefaultStreamConfig.
func (s Spec) Resolve() (Request, error) {
	req := Request{
		Config: sdrapi.DefaultStreamConfig(),
	}
	if s.Direction == "tx" {
		req.Direction = driver.DirectionTx
	}

	sawFormat := false
	for _, arg := range s.Args {
		if arg.Option != nil {
			if err := req.applyOption(*arg.Option); err != nil {
				return Request{}, err
			}
			continue
		}
		switch arg.Flag {
		case "sc16q11":
			req.Format = driver.FormatSC16Q11
			sawFormat = true
		case "sc8q7":
			req.Format = driver.FormatSC8Q7
			sawFormat = true
		case "mimo":
			req.MIMO = true
		default:
			return Request{}, fmt.Errorf("unknown stream flag %q", arg.Flag)
		}
	}
	if !sawFormat {
		return Request{}, fmt.Errorf("stream spec needs a sample format (sc16q11 or sc8q7)")
	}
	if req.MIMO && req.Channel != 0 {
		return Request{}, fmt.Errorf("mimo and ch are mutually exclusive")
	}
	return req, nil
}

func (r *Request) applyOption(opt Option) error {
	number := func() (uint32, error) {
		if opt.Number == nil {
			return 0, fmt.Errorf("option %s needs a number", opt.Name)
		}
		return *opt.Number, nil
	}
	switch opt.Name {
	case "ch":
		n, err := number()
		if err != nil {
			return err
		}
		if n > 1 {
			return fmt.Errorf("channel index %d out of range", n)
		}
		r.Channel = uint8(n)
	case "buffers":
		n, err := number()
		if err != nil {
			return err
		}
		r.Config.NumBuffers = n
	case "samples":
		n, err := number()
		if err != nil {
			return err
		}
		r.Config.SamplesPerBuffer = n
	case "transfers":
		n, err := number()
		if err != nil {
			return err
		}
		r.Config.NumTransfers = n
	case "timeout":
		if opt.Duration == nil {
			return fmt.Errorf("option timeout needs a duration")
		}
		r.Config.Timeout = time.Duration(*opt.Duration)
	default:
		return fmt.Errorf("unknown stream option %q", opt.Name)
	}
	return nil
}
