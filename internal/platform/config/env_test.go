package config

import (
	"errors"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"GAMEBENCH_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("GAMEBENCH_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDefaultsMatchClassicConstants(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Participants != 100 || cfg.ObjectsPerParticipant != 50 || cfg.LightsPerParticipant != 10 {
		t.Errorf("population defaults = %d/%d/%d", cfg.Participants, cfg.ObjectsPerParticipant, cfg.LightsPerParticipant)
	}
	if cfg.TextureSize != 256 || cfg.GridSize != 100 || cfg.Frames != 10 {
		t.Errorf("shape defaults = %d/%d/%d", cfg.TextureSize, cfg.GridSize, cfg.Frames)
	}
	if cfg.Step != 0.1 {
		t.Errorf("step = %f", cfg.Step)
	}
	if cfg.Mode != ModeParallel || !cfg.Timed || !cfg.Report {
		t.Errorf("mode defaults = %q timed=%v report=%v", cfg.Mode, cfg.Timed, cfg.Report)
	}
	if cfg.ResultsDB != "" || cfg.StreamAddr != "" || cfg.OTelEndpoint != "" {
		t.Errorf("extras must be off by default: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GAMEBENCH_PARTICIPANTS", "2")
	t.Setenv("GAMEBENCH_MODE", "sequential")
	t.Setenv("GAMEBENCH_STEP", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Participants != 2 || cfg.Mode != ModeSequential || cfg.Step != 0.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad mode", map[string]string{"GAMEBENCH_MODE": "gpu"}},
		{"negative frames", map[string]string{"GAMEBENCH_FRAMES": "-1"}},
		{"zero texture", map[string]string{"GAMEBENCH_TEXTURE_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
