package agent

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config points the agent at its data directory and the user-driven
// configuration files. Live reload only applies to the preset file.
type Config struct {
	DataDir       string `yaml:"dataDir"`
	PresetsConfig string `yaml:"presetsConfig"`
	// Simulate replaces the Linux backend with simulated radios.
	Simulate bool `yaml:"simulate"`
}

// LoadConfig overlays an agent.yml onto cfg. A missing file is not an
// error; the defaults stand.
func LoadConfig(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read agent config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse agent config: %w", err)
	}
	return cfg, nil
}
