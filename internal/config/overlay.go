// config/overlay.go
package config

import (
	"errors"
	"os"
	"strings"

	"jobmarket-engine/internal/scrape/types"

	"gopkg.in/yaml.v3"
)

type SourcesFile struct {
	Sources []types.Profile `yaml:"sources"`
}

// OverlaySources merges profiles from a separate sources file into cfg. A
// profile replaces the configured one with the same name, otherwise it is
// appended.
func OverlaySources(cfg *Config, sourcesPath string) error {
	b, err := os.ReadFile(sourcesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Missing sources file should not kill startup
			return nil
		}
		return err
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return err
	}

	for _, p := range sf.Sources {
		replaced := false
		for i := range cfg.Sources {
			if strings.EqualFold(cfg.Sources[i].Name, p.Name) {
				cfg.Sources[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Sources = append(cfg.Sources, p)
		}
	}
	return nil
}
