package noise

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// DefaultKernel is the canonical gradient noise implemented by NoiseGenerator.
const DefaultKernel = "gradient"

// ErrUnknownKernel is returned by New for a name nothing was registered under.
var ErrUnknownKernel = errors.New("unknown noise kernel")

// Factory builds a Field from a seed.
type Factory func(seed int64) Field

var (
	kernelsMu sync.RWMutex
	kernels   = map[string]Factory{}
)

func init() {
	Register(DefaultKernel, func(seed int64) Field { return NewNoiseGenerator(seed) })
	Register("opensimplex", func(seed int64) Field { return NewSimplexField(seed) })
	Register("perlin", func(seed int64) Field { return NewPerlinField(seed) })
}

// Register makes a kernel available under name. Registering the same name
// twice replaces the earlier factory.
func Register(name string, factory Factory) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	kernels[name] = factory
}

func unregister(name string) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	delete(kernels, name)
}

// New builds the named kernel. An empty name selects DefaultKernel.
func New(name string, seed int64) (Field, error) {
	if name == "" {
		name = DefaultKernel
	}
	kernelsMu.RLock()
	f, ok := kernels[name]
	kernelsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKernel, name)
	}
	return f(seed), nil
}

// Kernels returns the registered kernel names in sorted order.
func Kernels() []string {
	kernelsMu.RLock()
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	kernelsMu.RUnlock()
	sort.Strings(names)
	return names
}

// SimplexField adapts OpenSimplex noise to the Field contract.
type SimplexField struct {
	os opensimplex.Noise
}

// NewSimplexField creates an OpenSimplex field with values in [-1, 1].
func NewSimplexField(seed int64) *SimplexField {
	return &SimplexField{os: opensimplex.New(seed)}
}

// Validate reports ErrDegenerateState for a nil or zero-value field.
func (f *SimplexField) Validate() error {
	if f == nil || f.os == nil {
		return ErrDegenerateState
	}
	return nil
}

func (f *SimplexField) Noise3D(x, y, z, wavelength, amplitude float64) float64 {
	wavelength = normalizeWavelength(wavelength)
	return f.os.Eval3(x/wavelength, y/wavelength, z/wavelength) * amplitude
}

// PerlinField adapts a single octave of classic Perlin noise.
type PerlinField struct {
	p *perlin.Perlin
}

// NewPerlinField creates a one-octave Perlin field.
func NewPerlinField(seed int64) *PerlinField {
	return &PerlinField{p: perlin.NewPerlin(2, 2, 1, seed)}
}

// Validate reports ErrDegenerateState for a nil or zero-value field.
func (f *PerlinField) Validate() error {
	if f == nil || f.p == nil {
		return ErrDegenerateState
	}
	return nil
}

func (f *PerlinField) Noise3D(x, y, z, wavelength, amplitude float64) float64 {
	wavelength = normalizeWavelength(wavelength)
	return f.p.Noise3D(x/wavelength, y/wavelength, z/wavelength) * amplitude
}
