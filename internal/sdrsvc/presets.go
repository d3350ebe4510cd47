package sdrsvc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/radiokit-dev/radiokit/sdrapi/streamdsl"
)

// PresetsConfig is the on-disk shape of the stream preset file.
type PresetsConfig struct {
	Presets []PresetConfig `json:"presets"`
}

type PresetConfig struct {
	Name string `json:"name"`
	// Stream is a streamdsl description, e.g. `rx(sc16q11, buffers=32)`.
	Stream string `json:"stream"`
}

// Preset is a named, validated stream request.
type Preset struct {
	Name    string
	Request streamdsl.Request
}

// SetPresets replaces the preset table. Invalid entries reject the whole
// update so a live agent never loses its last good table to a typo.
func (s *Service) SetPresets(cfg PresetsConfig) error {
	parsed := make([]Preset, 0, len(cfg.Presets))
	for _, p := range cfg.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset with empty name")
		}
		spec, err := streamdsl.Parse(p.Stream)
		if err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
		req, err := spec.Resolve()
		if err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
		parsed = append(parsed, Preset{Name: p.Name, Request: req})
	}
	s.presets.Clear()
	for _, p := range parsed {
		s.presets.Store(p.Name, p)
	}
	s.log.Info("Presets updated", zap.Int("count", len(parsed)))
	return nil
}

// Preset looks up a named stream preset.
func (s *Service) Preset(name string) (Preset, bool) {
	p, ok := s.presets.Load(name)
	return p, ok
}
