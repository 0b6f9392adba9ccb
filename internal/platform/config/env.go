// Package config loads the benchmark configuration from the environment.
// Every field defaults to the classic compile-time constant, so a bare run
// needs no configuration at all.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ErrInvalid marks a configuration that parsed but cannot be run.
var ErrInvalid = errors.New("invalid configuration")

// Execution modes.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Config is the full runtime configuration.
type Config struct {
	Participants          int     `env:"GAMEBENCH_PARTICIPANTS" envDefault:"100"`
	ObjectsPerParticipant int     `env:"GAMEBENCH_OBJECTS" envDefault:"50"`
	LightsPerParticipant  int     `env:"GAMEBENCH_LIGHTS" envDefault:"10"`
	TextureSize           int     `env:"GAMEBENCH_TEXTURE_SIZE" envDefault:"256"`
	GridSize              int     `env:"GAMEBENCH_GRID_SIZE" envDefault:"100"`
	Frames                int     `env:"GAMEBENCH_FRAMES" envDefault:"10"`
	Step                  float32 `env:"GAMEBENCH_STEP" envDefault:"0.1"`

	Mode                   string `env:"GAMEBENCH_MODE" envDefault:"parallel"`
	Workers                int    `env:"GAMEBENCH_WORKERS"` // 0 takes the profile's value
	Profile                string `env:"GAMEBENCH_PROFILE" envDefault:"default"`
	ConcurrentParticipants bool   `env:"GAMEBENCH_CONCURRENT_PARTICIPANTS" envDefault:"false"`
	Timed                  bool   `env:"GAMEBENCH_TIMED" envDefault:"true"`
	Report                 bool   `env:"GAMEBENCH_REPORT" envDefault:"true"`
	Seed                   uint64 `env:"GAMEBENCH_SEED"` // 0 seeds from the clock

	LogLevel string `env:"GAMEBENCH_LOG_LEVEL" envDefault:"info"`

	// Opt-in extras, all disabled when empty.
	ResultsDB    string `env:"GAMEBENCH_RESULTS_DB"`
	StreamAddr   string `env:"GAMEBENCH_STREAM_ADDR"`
	OTelEndpoint string `env:"GAMEBENCH_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects shapes the engine cannot run.
func (c Config) Validate() error {
	checks := []struct {
		name  string
		value int
		min   int
	}{
		{"GAMEBENCH_PARTICIPANTS", c.Participants, 0},
		{"GAMEBENCH_OBJECTS", c.ObjectsPerParticipant, 0},
		{"GAMEBENCH_LIGHTS", c.LightsPerParticipant, 0},
		{"GAMEBENCH_TEXTURE_SIZE", c.TextureSize, 1},
		{"GAMEBENCH_GRID_SIZE", c.GridSize, 1},
		{"GAMEBENCH_FRAMES", c.Frames, 0},
		{"GAMEBENCH_WORKERS", c.Workers, 0},
	}
	for _, chk := range checks {
		if chk.value < chk.min {
			return fmt.Errorf("%s=%d must be >= %d: %w", chk.name, chk.value, chk.min, ErrInvalid)
		}
	}
	if c.Mode != ModeSequential && c.Mode != ModeParallel {
		return fmt.Errorf("GAMEBENCH_MODE=%q must be %q or %q: %w", c.Mode, ModeSequential, ModeParallel, ErrInvalid)
	}
	return nil
}
