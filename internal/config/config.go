// Package config loads process-wide server configuration: hard-coded
// defaults, optionally overridden by an on-disk YAML file, in turn
// overridden by CLI flags (wired in cmd/snakearena). Pairs
// gopkg.in/yaml.v3 with github.com/fsnotify/fsnotify for a "load file,
// watch for edits, log don't hot-apply" shape.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ancillary-agi/snakearena/internal/grid"
)

// Config is the full set of process-wide tunables.
type Config struct {
	Width         int
	Height        int
	Slots         int
	BodyCap       int
	FoodCount     int
	Port          int
	Workers       int
	TickInterval  time.Duration
	ClientTimeout time.Duration
	MaxPayload    int
	LogPretty     bool
	LogLevel      string
}

// fileConfig mirrors Config for YAML decoding. Durations are strings
// ("200ms", "30s") parsed with time.ParseDuration rather than relying on
// yaml.v3's bare int64-nanosecond decoding of time.Duration.
type fileConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Slots         int    `yaml:"slots"`
	BodyCap       int    `yaml:"body_cap"`
	FoodCount     int    `yaml:"food_count"`
	Port          int    `yaml:"port"`
	Workers       int    `yaml:"workers"`
	TickInterval  string `yaml:"tick_interval"`
	ClientTimeout string `yaml:"client_timeout"`
	MaxPayload    int    `yaml:"max_payload"`
	LogPretty     bool   `yaml:"log_pretty"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the hard-coded defaults: 40x40 grid, 100 slots, body
// capacity 100, 20 food cells, port 8888, 8 workers, 200ms tick cadence,
// 30s client timeout (this implementation's choice — recorded as an Open
// Question decision in DESIGN.md).
func Default() Config {
	return Config{
		Width:         40,
		Height:        40,
		Slots:         100,
		BodyCap:       100,
		FoodCount:     20,
		Port:          8888,
		Workers:       8,
		TickInterval:  200 * time.Millisecond,
		ClientTimeout: 30 * time.Second,
		MaxPayload:    256 * 1024,
		LogPretty:     false,
		LogLevel:      "info",
	}
}

// Load starts from Default and overlays any field present in the YAML file
// at path. A missing file is not an error: it simply means "use defaults",
// with the file acting as an optional override layer over the hard-coded
// baseline.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Decode into a zero-valued overlay so unset YAML fields don't
	// clobber the defaults already in cfg.
	var overlay fileConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := applyOverlay(&cfg, overlay); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func applyOverlay(cfg *Config, o fileConfig) error {
	if o.Width != 0 {
		cfg.Width = o.Width
	}
	if o.Height != 0 {
		cfg.Height = o.Height
	}
	if o.Slots != 0 {
		cfg.Slots = o.Slots
	}
	if o.BodyCap != 0 {
		cfg.BodyCap = o.BodyCap
	}
	if o.FoodCount != 0 {
		cfg.FoodCount = o.FoodCount
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.Workers != 0 {
		cfg.Workers = o.Workers
	}
	if o.TickInterval != "" {
		d, err := time.ParseDuration(o.TickInterval)
		if err != nil {
			return fmt.Errorf("tick_interval: %w", err)
		}
		cfg.TickInterval = d
	}
	if o.ClientTimeout != "" {
		d, err := time.ParseDuration(o.ClientTimeout)
		if err != nil {
			return fmt.Errorf("client_timeout: %w", err)
		}
		cfg.ClientTimeout = d
	}
	if o.MaxPayload != 0 {
		cfg.MaxPayload = o.MaxPayload
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	cfg.LogPretty = cfg.LogPretty || o.LogPretty
	return nil
}

// Validate rejects configurations that would make the shared envelope or
// the protocol codec unsafe (e.g. more slots than fit in a single
// PLAYER_BASE-tagged byte).
func (c Config) Validate() error {
	if c.Width < 3 || c.Height < 3 {
		return fmt.Errorf("config: width/height must be at least 3, got %dx%d", c.Width, c.Height)
	}
	if c.Slots <= 0 || c.Slots > grid.MaxSlots {
		return fmt.Errorf("config: slots must be in (0, %d], got %d", grid.MaxSlots, c.Slots)
	}
	if c.BodyCap <= 0 {
		return fmt.Errorf("config: body_cap must be positive, got %d", c.BodyCap)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port out of range: %d", c.Port)
	}
	return nil
}
