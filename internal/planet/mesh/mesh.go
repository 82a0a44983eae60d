// Package mesh assembles the displaced cube-sphere planet mesh.
package mesh

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCharnyshevich/planet-generator/internal/planet/cubesphere"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
	"github.com/OCharnyshevich/planet-generator/internal/planet/terrain"
)

// ErrInvalidConfiguration is returned when a Spec cannot produce a mesh.
var ErrInvalidConfiguration = cubesphere.ErrInvalidConfiguration

// MaxDivisions bounds Spec.Divisions. The largest accepted mesh has
// 6·2048² vertices, well inside the int32 counts of the wire format.
const MaxDivisions = 4096

// Spec is the input of one generation call.
type Spec struct {
	Radius     float64 `json:"radius"`
	Divisions  int     `json:"divisions"` // total subdivisions; divisions/2 points per cube edge
	Wavelength float64 `json:"wavelength"`
	Amplitude  float64 `json:"amplitude"`
	Offset     float64 `json:"offset"`
	Oceans     float64 `json:"oceans"`    // ocean exponent
	Mountains  float64 `json:"mountains"` // mountain exponent
}

// SideDivisions returns the number of grid points along one cube edge.
func (s Spec) SideDivisions() int {
	return s.Divisions / 2
}

// Validate reports why s cannot produce a mesh, or nil.
func (s Spec) Validate() error {
	_, err := s.grid()
	return err
}

func (s Spec) grid() (cubesphere.Grid, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"wavelength", s.Wavelength},
		{"amplitude", s.Amplitude},
		{"offset", s.Offset},
		{"oceans", s.Oceans},
		{"mountains", s.Mountains},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return cubesphere.Grid{}, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfiguration, f.name, f.value)
		}
	}
	// A negative exponent turns a clamped zero into +Inf.
	if s.Oceans < 0 || s.Mountains < 0 {
		return cubesphere.Grid{}, fmt.Errorf("%w: exponents must not be negative (oceans %v, mountains %v)", ErrInvalidConfiguration, s.Oceans, s.Mountains)
	}
	if s.Divisions > MaxDivisions {
		return cubesphere.Grid{}, fmt.Errorf("%w: divisions %d exceeds %d", ErrInvalidConfiguration, s.Divisions, MaxDivisions)
	}
	return cubesphere.NewGrid(s.Radius, s.Divisions)
}

func (s Spec) noiseParameters() terrain.NoiseParameters {
	return terrain.NoiseParameters{Wavelength: s.Wavelength, Amplitude: s.Amplitude}
}

func (s Spec) terrainParameters() terrain.Parameters {
	return terrain.Parameters{
		OceanExponent:    s.Oceans,
		MountainExponent: s.Mountains,
		Offset:           s.Offset,
	}
}

// Buffers is the generated mesh. It is owned by the caller.
type Buffers struct {
	Vertices  []mgl64.Vec3
	Triangles []int // three vertex indices per triangle
	Normals   []mgl64.Vec3
}

// Stats summarizes a mesh.
type Stats struct {
	Vertices  int
	Triangles int
	MinRadius float64
	MaxRadius float64
}

// Stats returns vertex and triangle counts and the range of vertex distances
// from the centre.
func (b *Buffers) Stats() Stats {
	st := Stats{
		Vertices:  len(b.Vertices),
		Triangles: len(b.Triangles) / 3,
		MinRadius: math.Inf(1),
		MaxRadius: math.Inf(-1),
	}
	for _, v := range b.Vertices {
		l := v.Len()
		st.MinRadius = math.Min(st.MinRadius, l)
		st.MaxRadius = math.Max(st.MaxRadius, l)
	}
	if len(b.Vertices) == 0 {
		st.MinRadius, st.MaxRadius = 0, 0
	}
	return st
}

// Generator builds planet meshes from a noise field.
type Generator struct {
	field noise.Field
	log   *slog.Logger
}

// NewGenerator creates a Generator sampling field. A nil log discards output.
func NewGenerator(field noise.Field, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{field: field, log: log}
}

// GeneratePlanet builds the vertex, triangle and normal buffers for spec.
// Validation happens before any allocation; on error no buffers are returned.
func (g *Generator) GeneratePlanet(spec Spec) (*Buffers, error) {
	if err := validateField(g.field); err != nil {
		return nil, err
	}
	grid, err := spec.grid()
	if err != nil {
		return nil, err
	}

	s := grid.SideDivisions
	perFace := s * s
	b := &Buffers{
		Vertices:  make([]mgl64.Vec3, 0, 6*perFace),
		Triangles: make([]int, 0, 36*(s-1)*(s-1)),
		Normals:   make([]mgl64.Vec3, 6*perFace),
	}

	np, tp := spec.noiseParameters(), spec.terrainParameters()
	for face := range len(cubesphere.Faces) {
		i := face * perFace
		for x := 0; x < s; x++ {
			for y := 0; y < s; y++ {
				p := grid.SpherePoint(face, x, y)
				b.Vertices = append(b.Vertices, terrain.ApplyLandscape(g.field, p, spec.Radius, np, tp))

				if x < s-1 && y < s-1 {
					b.Triangles = append(b.Triangles,
						i+x*s+y, i+(x+1)*s+y+1, i+(x+1)*s+y,
						i+x*s+y, i+x*s+y+1, i+(x+1)*s+y+1,
					)
				}
			}
		}
	}

	for face := range len(cubesphere.Faces) {
		for x := 0; x < s; x++ {
			for y := 0; y < s; y++ {
				b.Normals[face*perFace+x*s+y] = b.vertexNormal(face, s, x, y)
			}
		}
	}

	if err := b.checkFinite(); err != nil {
		return nil, err
	}

	st := b.Stats()
	g.log.Debug("planet generated",
		"radius", spec.Radius,
		"sideDivisions", s,
		"vertices", st.Vertices,
		"triangles", st.Triangles,
		"minRadius", st.MinRadius,
		"maxRadius", st.MaxRadius,
	)
	return b, nil
}

// vertexNormal returns the outward unit normal at grid point (x, y) of face.
// Interior points use the neighbours at (x-1, y-1) and (x-1, y); points on
// the x == 0 or y == 0 border mirror the missing side to x+1 or y+1.
func (b *Buffers) vertexNormal(face, s, x, y int) mgl64.Vec3 {
	dx, dy := -1, -1
	if x == 0 {
		dx = 1
	}
	if y == 0 {
		dy = 1
	}

	i := face * s * s
	v := b.Vertices[i+x*s+y]
	e1 := b.Vertices[i+(x+dx)*s+y+dy].Sub(v)
	e2 := b.Vertices[i+(x+dx)*s+y].Sub(v)
	n := e1.Cross(e2)

	l := n.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return cubesphere.Faces[face].Outward()
	}

	// Outward means a small step along the normal moves away from the centre.
	probe := n.Mul(1e-6 * math.Max(v.Len(), 1) / l)
	if v.Add(probe).Len() < v.Len() {
		n = n.Mul(-1)
	}
	return n.Mul(1 / l)
}

func (b *Buffers) checkFinite() error {
	for i, v := range b.Vertices {
		if !finite(v) {
			return fmt.Errorf("%w: vertex %d is not finite (%v)", ErrInvalidConfiguration, i, v)
		}
	}
	for i, n := range b.Normals {
		if !finite(n) {
			return fmt.Errorf("%w: normal %d is not finite (%v)", ErrInvalidConfiguration, i, n)
		}
	}
	return nil
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

type validator interface {
	Validate() error
}

func validateField(field noise.Field) error {
	if field == nil {
		return noise.ErrDegenerateState
	}
	if v, ok := field.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("noise field: %w", err)
		}
	}
	return nil
}

// IsInvalid reports whether err is a configuration or noise-state error.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) || errors.Is(err, noise.ErrDegenerateState)
}
