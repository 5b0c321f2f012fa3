package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file. Environment variables still take precedence
// over the values found in the file. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := mainConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("No config file found, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("[config Load] reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("[config Load] parsing %s: %w", path, err)
	}
	cfg.OIDC.baseURL = cfg.EnvVars

	log.Info().Str("path", path).Msg("Loaded configuration")
	return cfg, nil
}
