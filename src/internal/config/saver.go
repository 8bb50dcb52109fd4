// FILE: logvault/src/internal/config/saver.go
package config

import (
	"fmt"

	lconfig "github.com/lixenwraith/config"
)

// SaveToFile writes the configuration as TOML to path
func (c *Config) SaveToFile(path string) error {
	if path == "" {
		return fmt.Errorf("cannot save config: path is empty")
	}

	// Throwaway lconfig instance, only used for its atomic write. Defaults are the only
	// source so an existing file at path never leaks back into the output.
	lcfg, err := lconfig.NewBuilder().
		WithDefaults(c).
		WithSources(lconfig.SourceDefault).
		WithFileFormat("toml").
		Build()
	if err != nil {
		return fmt.Errorf("failed to create config builder: %w", err)
	}

	if err := lcfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
