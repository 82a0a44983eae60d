package storage

import (
	"sort"

	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
)

// Builtins are the presets installed into an empty data directory.
var Builtins = map[string]mesh.Spec{
	// Mostly land with shallow seas.
	"continental": {Radius: 100, Divisions: 128, Wavelength: 60, Amplitude: 12, Oceans: 1, Mountains: 2},
	// Oceans dominate; only high noise breaks the surface.
	"archipelago": {Radius: 100, Divisions: 128, Wavelength: 25, Amplitude: 8, Oceans: 4, Mountains: 1.5},
	// Sharp ridges.
	"alpine": {Radius: 100, Divisions: 192, Wavelength: 40, Amplitude: 18, Oceans: 2, Mountains: 4},
	"smooth": {Radius: 100, Divisions: 32, Wavelength: 50, Amplitude: 0, Oceans: 2, Mountains: 2},
}

// BuiltinNames returns the builtin preset names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(Builtins))
	for name := range Builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
