// Package planet generates procedural cube-sphere planet meshes.
//
// A Planet owns one seeded noise field and may be shared between goroutines;
// every Generate call returns freshly allocated buffers.
package planet

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
)

// Spec describes one planet. See mesh.Spec.
type Spec = mesh.Spec

// Mesh holds the generated vertices, triangle indices and normals.
type Mesh = mesh.Buffers

// ErrInvalidConfiguration is returned for specs that cannot produce a mesh.
var ErrInvalidConfiguration = mesh.ErrInvalidConfiguration

// ErrDegenerateNoiseState is returned when the noise field is not initialized.
var ErrDegenerateNoiseState = noise.ErrDegenerateState

// Planet generates meshes from one seeded noise field.
type Planet struct {
	seed   int64
	kernel string
	gen    *mesh.Generator
}

type options struct {
	kernel string
	log    *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithKernel selects a registered noise kernel by name.
func WithKernel(name string) Option {
	return func(o *options) { o.kernel = name }
}

// WithLogger sets the logger used for generation diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New creates a Planet whose terrain is fully determined by seed.
func New(seed int64, opts ...Option) (*Planet, error) {
	o := options{kernel: noise.DefaultKernel}
	for _, opt := range opts {
		opt(&o)
	}

	field, err := noise.New(o.kernel, seed)
	if err != nil {
		return nil, err
	}
	return &Planet{
		seed:   seed,
		kernel: o.kernel,
		gen:    mesh.NewGenerator(field, o.log),
	}, nil
}

// Seed returns the seed the planet was created with.
func (p *Planet) Seed() int64 { return p.seed }

// Kernel returns the noise kernel name.
func (p *Planet) Kernel() string { return p.kernel }

// Generate builds the mesh for spec.
func (p *Planet) Generate(spec Spec) (*Mesh, error) {
	return p.gen.GeneratePlanet(spec)
}

// GeneratePlanet builds a planet with a time-derived seed. Different calls
// generally produce different terrain.
func GeneratePlanet(radius float64, divisions int, wavelength, amplitude, offset, oceanFactor, mountainFactor float64) (vertices []mgl64.Vec3, triangles []int, normals []mgl64.Vec3, err error) {
	p, err := New(noise.TimeSeed())
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := p.Generate(Spec{
		Radius:     radius,
		Divisions:  divisions,
		Wavelength: wavelength,
		Amplitude:  amplitude,
		Offset:     offset,
		Oceans:     oceanFactor,
		Mountains:  mountainFactor,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return m.Vertices, m.Triangles, m.Normals, nil
}
