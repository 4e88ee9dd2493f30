// Package config loads and validates the gateway's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves a field unset.
const (
	DefaultListen          = ":8080"
	DefaultDataPath        = "rowgate.db"
	DefaultHealthInterval  = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the gateway's full configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataPath is the bbolt database file backing every instance.
	DataPath string `yaml:"data_path"`

	// LayoutDir holds one YAML layout file per table.
	LayoutDir string `yaml:"layout_dir"`

	// Instances declares the visible instances and which tables each
	// one exposes.
	Instances []Instance `yaml:"instances"`

	// HealthInterval is the delay between instance probe rounds.
	HealthInterval Duration `yaml:"health_interval"`

	// ShutdownTimeout bounds the graceful-shutdown drain.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Instance declares one visible instance.
type Instance struct {
	// Name identifies the instance in URLs.
	Name string `yaml:"name"`

	// Tables lists the layout names this instance exposes. Empty means
	// every table in the layout directory.
	Tables []string `yaml:"tables,omitempty"`
}

// Duration wraps time.Duration so YAML can carry values like "30s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads, parses, validates, and defaults a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DataPath == "" {
		c.DataPath = DefaultDataPath
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = Duration(DefaultHealthInterval)
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
}

func (c *Config) validate() error {
	if c.LayoutDir == "" {
		return fmt.Errorf("config: layout_dir is required")
	}
	if len(c.Instances) == 0 {
		return fmt.Errorf("config: at least one instance is required")
	}
	seen := make(map[string]bool, len(c.Instances))
	for i, inst := range c.Instances {
		if inst.Name == "" {
			return fmt.Errorf("config: instance %d has no name", i)
		}
		if seen[inst.Name] {
			return fmt.Errorf("config: duplicate instance %q", inst.Name)
		}
		seen[inst.Name] = true
	}
	if c.HealthInterval < 0 {
		return fmt.Errorf("config: health_interval must be positive")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("config: shutdown_timeout must be positive")
	}
	return nil
}
