package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Versifine/arenaview/internal/control"
)

var ErrInvalid = errors.New("invalid config")

const (
	ControllerKeyboard   = "keyboard"
	ControllerGamepad    = "gamepad"
	ControllerBallChaser = "ball_chaser"
)

var knownControllers = []string{ControllerKeyboard, ControllerGamepad, ControllerBallChaser}

type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Camera      CameraConfig      `yaml:"camera"`
	Input       map[string]string `yaml:"input"`
	Loop        LoopConfig        `yaml:"loop"`
	Controllers []string          `yaml:"controllers"`
	Gamepad     GamepadConfig     `yaml:"gamepad"`
	Stream      StreamConfig      `yaml:"stream"`
	Arena       ArenaConfig       `yaml:"arena"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type CameraConfig struct {
	FOV                float64 `yaml:"fov"`
	Distance           float64 `yaml:"distance"`
	Angle              float64 `yaml:"angle"`
	Height             float64 `yaml:"height"`
	MinFollowSpeed     float64 `yaml:"min_follow_speed"`
	ElevationDamping   float64 `yaml:"elevation_damping"`
	SupersonicFOVBoost float64 `yaml:"supersonic_fov_boost"`
}

type LoopConfig struct {
	FPS               float64 `yaml:"fps"`
	TickSkip          int     `yaml:"tick_skip"`
	StepArena         bool    `yaml:"step_arena"`
	OverwriteControls bool    `yaml:"overwrite_controls"`
	DebugText         bool    `yaml:"debug_text"`
}

type GamepadConfig struct {
	Device       string        `yaml:"device"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type StreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type ArenaConfig struct {
	TickRate  float64    `yaml:"tick_rate"`
	Cars      int        `yaml:"cars"`
	Pads      bool       `yaml:"pads"`
	BallStart [3]float64 `yaml:"ball_start"`
}

// MetricsConfig controls the InfluxDB tick recorder. Without a reachable
// server, points go to a gzip line-protocol backup file.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	InfluxURL  string `yaml:"influx_url"`
	Token      string `yaml:"token"`
	Org        string `yaml:"org"`
	Bucket     string `yaml:"bucket"`
	Every      int    `yaml:"every"`
	BackupPath string `yaml:"backup_path"`
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Camera: CameraConfig{
			FOV:              80,
			Distance:         800,
			Angle:            15,
			Height:           150,
			MinFollowSpeed:   50,
			ElevationDamping: 2.0 / 3.0,
		},
		Loop: LoopConfig{
			FPS:               60,
			StepArena:         true,
			OverwriteControls: true,
		},
		Input:       control.DefaultBindings(),
		Controllers: []string{ControllerKeyboard},
		Gamepad: GamepadConfig{
			Device:       "/dev/input/event0",
			PollInterval: 100 * time.Millisecond,
		},
		Stream: StreamConfig{Listen: "127.0.0.1:8765"},
		Arena: ArenaConfig{
			TickRate:  120,
			Cars:      2,
			Pads:      true,
			BallStart: [3]float64{500, 500, 1500},
		},
		Metrics: MetricsConfig{
			Org:        "arenaview",
			Bucket:     "ticks",
			Every:      6,
			BackupPath: "arenaview_ticks.lp.gz",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	// An input section replaces the default bindings instead of merging.
	cfg.Input = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Input) == 0 {
		cfg.Input = control.DefaultBindings()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Loop.FPS <= 0 {
		invalid("loop.fps must be positive, got %v", c.Loop.FPS)
	}
	if c.Loop.TickSkip < 0 {
		invalid("loop.tick_skip must not be negative, got %d", c.Loop.TickSkip)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		invalid("camera.fov must be in (0, 180), got %v", c.Camera.FOV)
	}
	if c.Camera.Distance <= 0 {
		invalid("camera.distance must be positive, got %v", c.Camera.Distance)
	}
	if c.Camera.MinFollowSpeed < 0 {
		invalid("camera.min_follow_speed must not be negative, got %v", c.Camera.MinFollowSpeed)
	}
	if c.Arena.TickRate <= 0 {
		invalid("arena.tick_rate must be positive, got %v", c.Arena.TickRate)
	}
	if c.Arena.Cars < 0 {
		invalid("arena.cars must not be negative, got %d", c.Arena.Cars)
	}
	if _, err := control.NewBindings(c.Input); err != nil {
		invalid("input: %v", err)
	}
	for _, name := range c.Controllers {
		if !slices.Contains(knownControllers, name) {
			invalid("unknown controller %q", name)
		}
	}
	if c.Stream.Enabled && c.Stream.Listen == "" {
		invalid("stream.listen is required when stream is enabled")
	}
	if c.Metrics.Enabled {
		if c.Metrics.InfluxURL == "" && c.Metrics.BackupPath == "" {
			invalid("metrics needs influx_url or backup_path")
		}
		if c.Metrics.InfluxURL != "" && c.Metrics.Bucket == "" {
			invalid("metrics.bucket is required with influx_url")
		}
		if c.Metrics.Every < 0 {
			invalid("metrics.every must not be negative, got %d", c.Metrics.Every)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) HasController(name string) bool {
	return slices.Contains(c.Controllers, name)
}
