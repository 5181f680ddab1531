package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine  EngineConfig   `toml:"engine" yaml:"engine"`
	Systems []SystemConfig `toml:"systems" yaml:"systems"`
	Logging LoggingConfig  `toml:"logging" yaml:"logging"`
	Metrics MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

type EngineConfig struct {
	TickRate time.Duration `toml:"tick_rate" yaml:"tick_rate"`

	// Registered after the built-in component types, in order.
	ComponentTypes []string `toml:"component_types" yaml:"component_types"`

	// YAML entity tree spawned at startup. Empty = a single demo spawner.
	WorldSeed string `toml:"world_seed" yaml:"world_seed"`
}

// SystemConfig registers one system. Exactly one of Builtin or Script is set.
// Systems are registered in file order.
type SystemConfig struct {
	Type    string `toml:"type" yaml:"type"`
	Builtin string `toml:"builtin" yaml:"builtin"`
	Script  string `toml:"script" yaml:"script"`
	Active  *bool  `toml:"active" yaml:"active"` // nil = true
}

// IsActive reports whether the system should run from the first tick.
func (s SystemConfig) IsActive() bool {
	return s.Active == nil || *s.Active
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	BindAddress string `toml:"bind_address" yaml:"bind_address"`
	Namespace   string `toml:"namespace" yaml:"namespace"`
}

// Load reads a TOML file, or YAML when the extension is .yaml or .yml, over
// the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse config %s: unknown key %s", path, undecoded[0])
		}
	}
	if len(cfg.Systems) == 0 {
		cfg.Systems = defaultSystems()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive, got %s", c.Engine.TickRate)
	}
	for i, s := range c.Systems {
		if s.Type == "" {
			return fmt.Errorf("systems[%d]: type is required", i)
		}
		if (s.Builtin == "") == (s.Script == "") {
			return fmt.Errorf("systems[%d] %q: set exactly one of builtin or script", i, s.Type)
		}
	}
	if c.Metrics.Enabled && c.Metrics.BindAddress == "" {
		return errors.New("metrics.bind_address is required when metrics are enabled")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1:9464",
			Namespace:   "hecs",
		},
	}
}

// defaultSystems runs the built-in demo systems.
func defaultSystems() []SystemConfig {
	return []SystemConfig{
		{Type: "spawner", Builtin: "spawner"},
		{Type: "motion", Builtin: "motion"},
		{Type: "lifetime", Builtin: "lifetime"},
		{Type: "census", Builtin: "census"},
	}
}
