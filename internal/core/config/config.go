package config

import (
	"fmt"
	"time"

	"github.com/vietddude/acadcom/internal/core/hresult"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Application ApplicationConfig `yaml:"application"`
	Retry       RetryConfig       `yaml:"retry"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ApplicationConfig identifies the automation server to attach to.
type ApplicationConfig struct {
	ProgID  string `yaml:"prog_id"`
	Visible *bool  `yaml:"visible"` // nil = true
}

// IsVisible reports whether the application window should be shown.
func (a ApplicationConfig) IsVisible() bool {
	return a.Visible == nil || *a.Visible
}

// RetryConfig holds the busy-retry policy for foreign calls.
type RetryConfig struct {
	StepDelay           time.Duration `yaml:"step_delay"`
	MaxTotalDelay       time.Duration `yaml:"max_total_delay"`
	TransientCodes      []StatusCode  `yaml:"transient_codes"`
	RetryMemberNotFound bool          `yaml:"retry_member_not_found"`
}

// Codes returns the transient codes as HRESULTs.
func (r RetryConfig) Codes() []hresult.HRESULT {
	codes := make([]hresult.HRESULT, len(r.TransientCodes))
	for i, c := range r.TransientCodes {
		codes[i] = hresult.HRESULT(c)
	}
	return codes
}

// Validate checks that a retry loop under r terminates.
func (r RetryConfig) Validate() error {
	if r.StepDelay <= 0 {
		return fmt.Errorf("step_delay must be positive, got %v", r.StepDelay)
	}
	if r.MaxTotalDelay < 0 {
		return fmt.Errorf("max_total_delay must not be negative, got %v", r.MaxTotalDelay)
	}
	return nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the optional metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// StatusCode is an HRESULT written in YAML as an integer (signed or
// unsigned) or a "0x..." string.
type StatusCode hresult.HRESULT

func (s *StatusCode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	code, err := hresult.Parse(fmt.Sprint(raw))
	if err != nil {
		return err
	}
	*s = StatusCode(code)
	return nil
}
