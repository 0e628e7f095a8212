// Package bot wires the search bot together: configuration, bootstrap, the
// Telegram transport adapter, and the dialogue engine.
package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/searchbot/bot/search"
	coreconfig "github.com/m3rciful/searchbot/core/config"
	coredatabase "github.com/m3rciful/searchbot/core/database"
)

// Config aggregates the core bot configuration with the database and search
// provider sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Search   search.Config       `yaml:"search"`
}

// CoreConfig exposes the embedded core section for the generic runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads the YAML config file, applies environment overrides, and
// validates all sections.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Search.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
