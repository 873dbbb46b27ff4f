package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by CONFIG_PATH env (fallback "./config.yaml").
// If the file does not exist and CONFIG_PATH was not set explicitly,
// configuration is loaded from ENV + defaults only.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		path = ""
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path, or from ENV + defaults when path is
// empty, and validates it.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}
