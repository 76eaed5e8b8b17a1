// Package config loads the acadcom YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/vietddude/acadcom/internal/core/hresult"
	"gopkg.in/yaml.v2"
)

// DefaultProgID is the automation server name of the CAD application.
const DefaultProgID = "AutoCAD.Application"

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*AppConfig, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *AppConfig) applyDefaults() {
	if c.Application.ProgID == "" {
		c.Application.ProgID = DefaultProgID
	}
	if c.Retry.StepDelay == 0 {
		c.Retry.StepDelay = 100 * time.Millisecond
	}
	if c.Retry.MaxTotalDelay == 0 {
		c.Retry.MaxTotalDelay = 10 * time.Second
	}
	if len(c.Retry.TransientCodes) == 0 {
		for _, code := range hresult.BusyCodes {
			c.Retry.TransientCodes = append(c.Retry.TransientCodes, StatusCode(code))
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
