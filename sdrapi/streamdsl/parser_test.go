package streamdsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

func TestResolve(t *testing.T) {
	type testCase struct {
		input    string
		expected Request
	}

	defaults := sdrapi.DefaultStreamConfig()

	testCases := []testCase{
		{
			input: `rx(sc16q11)`,
			expected: Request{
				Direction: driver.DirectionRx,
				Format:    driver.FormatSC16Q11,
				Config:    defaults,
			},
		},
		{
			input: `rx(sc8q7, mimo)`,
			expected: Request{
				Direction: driver.DirectionRx,
				Format:    driver.FormatSC8Q7,
				MIMO:      true,
				Config:    defaults,
			},
		},
		{
			input: `tx(sc16q11, ch=1, buffers=32, samples=4096, transfers=16, timeout=500ms)`,
			expected: Request{
				Direction: driver.DirectionTx,
				Format:    driver.FormatSC16Q11,
				Channel:   1,
				Config: sdrapi.StreamConfig{
					NumBuffers:       32,
					SamplesPerBuffer: 4096,
					NumTransfers:     16,
					Timeout:          500 * time.Millisecond,
				},
			},
		},
		{
			input: `rx( sc16q11 , timeout=2s )`,
			expected: Request{
				Direction: driver.DirectionRx,
				Format:    driver.FormatSC16Q11,
				Config: sdrapi.StreamConfig{
					NumBuffers:       defaults.NumBuffers,
					SamplesPerBuffer: defaults.SamplesPerBuffer,
					NumTransfers:     defaults.NumTransfers,
					Timeout:          2 * time.Second,
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			spec, err := Parse(tc.input)
			require.NoError(t, err)
			req, err := spec.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	inputs := []string{
		`rx()`,                  // no format
		`rx(mimo)`,              // no format
		`rx(sc16q11, chirp)`,    // unknown flag
		`rx(sc16q11, ch=2)`,     // channel out of range
		`rx(sc16q11, ch=500ms)`, // wrong value kind
		`rx(sc16q11, mimo, ch=1)`,
		`rx(sc16q11, depth=4)`, // unknown option
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			spec, err := Parse(input)
			if err != nil {
				return
			}
			_, err = spec.Resolve()
			require.Error(t, err)
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		``,
		`foo(sc16q11)`,
		`rx sc16q11`,
		`rx(sc16q11`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
		})
	}
}
