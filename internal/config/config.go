package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tmpwrap/internal/foundation/errors"
)

// DefaultDirTemplate is the global template used when none is configured.
// BUILD_TAG is unique per build, so the default yields a build-private path.
const DefaultDirTemplate = "${BUILD_TAG}-tmp"

// Config represents the persisted tmpwrap configuration.
//
// DirTemplate is the global temporary-directory path template. A per-job
// template (given on the command line) overrides it; the global template
// itself must never be empty.
type Config struct {
	DirTemplate    string `yaml:"dir_template"`
	LogDirContents bool   `yaml:"log_dir_contents"`
	Metrics        bool   `yaml:"metrics,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DirTemplate:    DefaultDirTemplate,
		LogDirContents: false,
	}
}

// Load loads configuration from the specified file.
// A missing file is not an error; the defaults apply.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified file.
// Invalid configurations are rejected before anything is written, so a
// persisted config file always passes Validate on the next Load.
func (c *Config) Save(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.InternalError("failed to marshal config").
			WithCause(err).
			Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.ConfigError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	return nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.DirTemplate == "" {
		return errors.ValidationError("dir_template must not be empty").
			WithContext("field", "dir_template").
			Build()
	}
	return nil
}
