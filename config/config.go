// Package config provides configuration loading and access for the game.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all game configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Capture   CaptureConfig   `yaml:"capture"`
	Inference InferenceConfig `yaml:"inference"`
	Rocks     RocksConfig     `yaml:"rocks"`
	Collision CollisionConfig `yaml:"collision"`
	Degrade   DegradeConfig   `yaml:"degrade"`
	Players   PlayersConfig   `yaml:"players"`
	Effects   EffectsConfig   `yaml:"effects"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// CaptureConfig holds capture stage parameters.
type CaptureConfig struct {
	DeviceIndex   int     `yaml:"device_index"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	RetryAttempts int     `yaml:"retry_attempts"`
	RetryDelayMS  float64 `yaml:"retry_delay_ms"`
	ScanMaxIndex  int     `yaml:"scan_max_index"`
}

// InferenceConfig holds inference stage parameters.
type InferenceConfig struct {
	MaxSubjects int  `yaml:"max_subjects"`
	Duplicate   bool `yaml:"duplicate"` // mirror one subject to both halves (solo two-player)
}

// RocksConfig holds rock spawn and motion parameters.
type RocksConfig struct {
	SpawnInterval float64 `yaml:"spawn_interval"` // seconds between spawns
	MinRadius     float64 `yaml:"min_radius"`
	MaxRadius     float64 `yaml:"max_radius"`
	FallSpeedMin  float64 `yaml:"fall_speed_min"` // px/s
	FallSpeedMax  float64 `yaml:"fall_speed_max"`
	DriftMax      float64 `yaml:"drift_max"` // max horizontal px/s either way
	MaxAlive      int     `yaml:"max_alive"`
}

// CollisionConfig holds spatial grid parameters.
type CollisionConfig struct {
	// CellSize must cover the largest probe radius plus the largest rock
	// radius; Validate enforces this.
	CellSize       float64 `yaml:"cell_size"`
	MaxProbeRadius float64 `yaml:"max_probe_radius"`
}

// DegradeConfig holds adaptive degradation parameters. Tuned defaults, not
// constants: the right threshold depends on hardware and workload.
type DegradeConfig struct {
	WindowSize     int     `yaml:"window_size"`     // rolling window of frame totals
	MedianMultiple float64 `yaml:"median_multiple"` // degrade when last total > multiple * median
}

// PlayersConfig holds player and scoring parameters.
type PlayersConfig struct {
	Count           int     `yaml:"count"`
	Lives           int     `yaml:"lives"`
	KickScore       int     `yaml:"kick_score"`
	InvulnerableSec float64 `yaml:"invulnerable_sec"`
}

// EffectsConfig holds particle effect parameters.
type EffectsConfig struct {
	BurstCount   int     `yaml:"burst_count"`
	LifeMin      float64 `yaml:"life_min"`
	LifeMax      float64 `yaml:"life_max"`
	SpeedMin     float64 `yaml:"speed_min"`
	SpeedMax     float64 `yaml:"speed_max"`
	MaxParticles int     `yaml:"max_particles"`
}

// TelemetryConfig holds profiler parameters.
type TelemetryConfig struct {
	HistorySize int     `yaml:"history_size"` // profiler ring capacity
	AvgWindow   int     `yaml:"avg_window"`   // frames per OSD rolling average
	LogEverySec float64 `yaml:"log_every_sec"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if c.Collision.CellSize < c.Collision.MaxProbeRadius+c.Rocks.MaxRadius {
		return fmt.Errorf(
			"config: collision.cell_size %.1f must be >= max_probe_radius %.1f + rocks.max_radius %.1f",
			c.Collision.CellSize, c.Collision.MaxProbeRadius, c.Rocks.MaxRadius)
	}
	if c.Rocks.MinRadius > c.Rocks.MaxRadius {
		return fmt.Errorf("config: rocks.min_radius %.1f exceeds rocks.max_radius %.1f",
			c.Rocks.MinRadius, c.Rocks.MaxRadius)
	}
	if c.Degrade.MedianMultiple <= 1 {
		return fmt.Errorf("config: degrade.median_multiple must be > 1, got %.2f",
			c.Degrade.MedianMultiple)
	}
	if c.Players.Count < 1 || c.Players.Count > 2 {
		// Hits map to players by screen half, so at most two.
		return fmt.Errorf("config: players.count must be 1 or 2, got %d", c.Players.Count)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
