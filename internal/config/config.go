// Package config loads and validates flicker's YAML configuration
// document (§6): a top-level log_files array, each entry describing one
// tailed file and the destination it ships to.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	LogFiles []FileConfig `yaml:"log_files"`
}

// FileConfig is one entry of log_files.
type FileConfig struct {
	Path               string            `yaml:"path"`
	PollingFrequencyMs int               `yaml:"polling_frequency_ms"`
	BufferSize         int               `yaml:"buffer_size"`
	FlushIntervalMs    int               `yaml:"flush_interval_ms"`
	MatchOn            []string          `yaml:"match_on"`
	ExcludeOn          []string          `yaml:"exclude_on"`
	Destination        DestinationConfig `yaml:"destination"`
}

// DestinationConfig is the discriminated sink configuration for one file.
type DestinationConfig struct {
	Type string `yaml:"type"`

	// http fields.
	Endpoint    string     `yaml:"endpoint"`
	RequireAuth bool       `yaml:"require_auth"`
	APIKey      string     `yaml:"api_key"`
	Basic       *BasicAuth `yaml:"basic"`

	// syslog fields.
	Network string `yaml:"network"`
	Address string `yaml:"address"`
	Tag     string `yaml:"tag"`

	// elasticsearch fields.
	URL   string `yaml:"url"`
	Index string `yaml:"index"`

	// file fields.
	OutputPath string `yaml:"output_path"`
}

// BasicAuth holds HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PollInterval returns the configured polling frequency as a Duration.
func (f FileConfig) PollInterval() time.Duration {
	return time.Duration(f.PollingFrequencyMs) * time.Millisecond
}

// FlushInterval returns the configured flush interval as a Duration.
func (f FileConfig) FlushInterval() time.Duration {
	return time.Duration(f.FlushIntervalMs) * time.Millisecond
}

// Load reads and parses the YAML document at path, applies defaults, and
// validates it. A malformed document or a failed validation is a
// ConfigError and aborts startup — there is no fallback to a default
// configuration once a path has been given explicitly.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ConfigError{fmt.Errorf("config: parse %s: %w", path, err)}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.LogFiles {
		f := &c.LogFiles[i]
		if f.BufferSize == 0 {
			f.BufferSize = 100
		}
		if f.FlushIntervalMs == 0 {
			f.FlushIntervalMs = 30000
		}
	}
}

// Validate checks every FileConfig entry against the constraints of §6
// and §7: required fields, positive numeric ranges, a known destination
// type, and the HTTP auth exclusivity rule. It collects every problem
// found rather than stopping at the first, so a misconfigured fleet of
// files is reported in one pass.
func (c *Config) Validate() error {
	var errs ConfigError
	if len(c.LogFiles) == 0 {
		errs = append(errs, fmt.Errorf("log_files: at least one entry is required"))
	}
	for i, f := range c.LogFiles {
		errs = append(errs, f.validate(i)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f FileConfig) validate(index int) []error {
	var errs []error
	prefix := fmt.Sprintf("log_files[%d] (%s)", index, f.Path)

	if f.Path == "" {
		errs = append(errs, fmt.Errorf("%s: path is required", prefix))
	}
	if f.PollingFrequencyMs <= 0 {
		errs = append(errs, fmt.Errorf("%s: polling_frequency_ms must be > 0", prefix))
	}
	if f.BufferSize < 1 {
		errs = append(errs, fmt.Errorf("%s: buffer_size must be >= 1", prefix))
	}
	if f.FlushIntervalMs < 1 {
		errs = append(errs, fmt.Errorf("%s: flush_interval_ms must be >= 1", prefix))
	}
	errs = append(errs, f.Destination.validate(prefix)...)
	return errs
}

func (d DestinationConfig) validate(prefix string) []error {
	var errs []error
	switch d.Type {
	case "http":
		if d.Endpoint == "" {
			errs = append(errs, fmt.Errorf("%s: destination.endpoint is required", prefix))
		}
		hasAPIKey := d.APIKey != ""
		hasBasic := d.Basic != nil
		if d.RequireAuth && hasAPIKey == hasBasic {
			errs = append(errs, fmt.Errorf("%s: destination.require_auth needs exactly one of api_key or basic", prefix))
		}
	case "syslog":
		// network/address default to the local syslog daemon; nothing required.
	case "elasticsearch":
		if d.URL == "" || d.Index == "" {
			errs = append(errs, fmt.Errorf("%s: destination.url and destination.index are required", prefix))
		}
	case "file":
		if d.OutputPath == "" {
			errs = append(errs, fmt.Errorf("%s: destination.output_path is required", prefix))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown destination.type %q", prefix, d.Type))
	}
	return errs
}
