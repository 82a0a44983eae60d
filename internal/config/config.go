package config

import (
	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
)

const (
	// DefaultMaxDivisions is the divisions limit used when none is configured.
	DefaultMaxDivisions = 512
	// DefaultMaxGenerators is the generator cache size used when none is configured.
	DefaultMaxGenerators = 64
)

// Config holds the planet service configuration.
type Config struct {
	Port          int       `json:"port"`
	Seed          int64     `json:"seed"`           // 0 = time seeded at startup
	Kernel        string    `json:"kernel"`         // noise kernel name
	MaxDivisions  int       `json:"max_divisions"`  // upper bound accepted from clients
	MaxGenerators int       `json:"max_generators"` // cached (kernel, seed) noise generators
	DefaultSpec   mesh.Spec `json:"default_spec"`   // used when a request names neither preset nor spec

	DataDir string `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:          8080,
		Kernel:        noise.DefaultKernel,
		MaxDivisions:  DefaultMaxDivisions,
		MaxGenerators: DefaultMaxGenerators,
		DefaultSpec:   DefaultSpec(),
		DataDir:       "data",
	}
}

// DivisionLimit returns the divisions limit for client specs. A
// non-positive MaxDivisions means the default, never unlimited.
func (c *Config) DivisionLimit() int {
	if c.MaxDivisions <= 0 {
		return DefaultMaxDivisions
	}
	return c.MaxDivisions
}

// GeneratorLimit returns the generator cache size, falling back to the
// default for non-positive values.
func (c *Config) GeneratorLimit() int {
	if c.MaxGenerators <= 0 {
		return DefaultMaxGenerators
	}
	return c.MaxGenerators
}

// DefaultSpec is a medium resolution planet with gentle relief.
func DefaultSpec() mesh.Spec {
	return mesh.Spec{
		Radius:     100,
		Divisions:  64,
		Wavelength: 50,
		Amplitude:  10,
		Offset:     0,
		Oceans:     2,
		Mountains:  2,
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["port"] {
		cfg.Port = fromFile.Port
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["kernel"] {
		cfg.Kernel = fromFile.Kernel
	}
	if !explicitFlags["max-divisions"] {
		cfg.MaxDivisions = fromFile.MaxDivisions
	}
	if !explicitFlags["max-generators"] {
		cfg.MaxGenerators = fromFile.MaxGenerators
	}
	cfg.DefaultSpec = fromFile.DefaultSpec
}
