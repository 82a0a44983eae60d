package config

import (
	"testing"

	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Kernel != noise.DefaultKernel {
		t.Errorf("Kernel = %q, want %q", cfg.Kernel, noise.DefaultKernel)
	}
	if err := cfg.DefaultSpec.Validate(); err != nil {
		t.Errorf("DefaultSpec is invalid: %v", err)
	}
	if cfg.DefaultSpec.Divisions > cfg.MaxDivisions {
		t.Errorf("DefaultSpec.Divisions %d exceeds MaxDivisions %d", cfg.DefaultSpec.Divisions, cfg.MaxDivisions)
	}
}

func TestMerge(t *testing.T) {
	fromFile := &Config{
		Port:         9000,
		Seed:         42,
		Kernel:       "perlin",
		MaxDivisions: 128,
		DefaultSpec:  DefaultSpec(),
	}
	fromFile.DefaultSpec.Radius = 250

	tests := []struct {
		name     string
		explicit map[string]bool
		wantPort int
		wantSeed int64
		wantKern string
		wantMax  int
	}{
		{"no_flags", nil, 9000, 42, "perlin", 128},
		{"port_flag", map[string]bool{"port": true}, 7000, 42, "perlin", 128},
		{"all_flags", map[string]bool{"port": true, "seed": true, "kernel": true, "max-divisions": true}, 7000, 7, "opensimplex", 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Port = 7000
			cfg.Seed = 7
			cfg.Kernel = "opensimplex"
			cfg.MaxDivisions = 32

			Merge(cfg, fromFile, tt.explicit)

			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.Seed != tt.wantSeed {
				t.Errorf("Seed = %d, want %d", cfg.Seed, tt.wantSeed)
			}
			if cfg.Kernel != tt.wantKern {
				t.Errorf("Kernel = %q, want %q", cfg.Kernel, tt.wantKern)
			}
			if cfg.MaxDivisions != tt.wantMax {
				t.Errorf("MaxDivisions = %d, want %d", cfg.MaxDivisions, tt.wantMax)
			}
			if cfg.DefaultSpec.Radius != 250 {
				t.Errorf("DefaultSpec.Radius = %v, want 250", cfg.DefaultSpec.Radius)
			}
		})
	}
}

func TestLimitsFallBackToDefaults(t *testing.T) {
	tests := []struct {
		name          string
		maxDivisions  int
		maxGenerators int
		wantDivisions int
		wantGens      int
	}{
		{"configured", 128, 8, 128, 8},
		{"zero", 0, 0, DefaultMaxDivisions, DefaultMaxGenerators},
		{"negative", -1, -5, DefaultMaxDivisions, DefaultMaxGenerators},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{MaxDivisions: tt.maxDivisions, MaxGenerators: tt.maxGenerators}
			if got := cfg.DivisionLimit(); got != tt.wantDivisions {
				t.Errorf("DivisionLimit = %d, want %d", got, tt.wantDivisions)
			}
			if got := cfg.GeneratorLimit(); got != tt.wantGens {
				t.Errorf("GeneratorLimit = %d, want %d", got, tt.wantGens)
			}
		})
	}
}
