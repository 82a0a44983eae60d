package noise

import (
	"errors"
	"math"
	"time"
)

// Gradient (Perlin-style) noise over a seeded permutation table.
// Corner hashes pick one of 16 gradient directions; the fractional offsets are
// eased with a quintic fade and blended with a cosine interpolator.

// ErrDegenerateState is returned for a generator whose permutation table was
// never populated.
var ErrDegenerateState = errors.New("noise generator state is not initialized")

// Field is a continuous 3D scalar field scaled by wavelength and amplitude.
type Field interface {
	Noise3D(x, y, z, wavelength, amplitude float64) float64
}

// gradients are the 12 cube-edge midpoints padded to 16 so that the low four
// hash bits index them without a modulo.
var gradients = [16][3]float64{
	{1, 1, 0},
	{-1, 1, 0},
	{1, -1, 0},
	{-1, -1, 0},
	{1, 0, 1},
	{-1, 0, 1},
	{1, 0, -1},
	{-1, 0, -1},
	{0, 1, 1},
	{0, -1, 1},
	{0, 1, -1},
	{0, -1, -1},
	{1, 1, 0},
	{-1, 1, 0},
	{0, -1, 1},
	{0, -1, -1},
}

// NoiseGenerator owns the permutation table for one terrain. It is read-only
// after construction and safe for concurrent use.
type NoiseGenerator struct {
	perm  [512]int
	seed  int64
	ready bool
}

// NewNoiseGenerator creates a generator whose permutation is shuffled from seed.
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	ng := &NoiseGenerator{seed: seed}

	var p [256]int
	for i := range p {
		p[i] = i
	}

	// Fisher-Yates driven by a 64-bit LCG.
	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s>>33)&0x7FFFFFFF) % (i + 1)
		p[i], p[j] = p[j], p[i]
	}

	for i := range ng.perm {
		ng.perm[i] = p[i&255]
	}
	ng.ready = true
	return ng
}

// TimeSeed returns a wall-clock derived seed.
func TimeSeed() int64 {
	return time.Now().UnixNano()
}

// Seed returns the seed the generator was built from.
func (ng *NoiseGenerator) Seed() int64 {
	return ng.seed
}

// Validate reports ErrDegenerateState for a nil or zero-value generator.
func (ng *NoiseGenerator) Validate() error {
	if ng == nil || !ng.ready {
		return ErrDegenerateState
	}
	return nil
}

// Noise3D samples the field at (x, y, z) / wavelength and scales the result
// by amplitude. A wavelength <= 0 is treated as 1.
func (ng *NoiseGenerator) Noise3D(x, y, z, wavelength, amplitude float64) float64 {
	wavelength = normalizeWavelength(wavelength)
	x /= wavelength
	y /= wavelength
	z /= wavelength

	xi, yi, zi := fastFloor(x), fastFloor(y), fastFloor(z)
	fx := x - float64(xi)
	fy := y - float64(yi)
	fz := z - float64(zi)

	X, Y, Z := xi&255, yi&255, zi&255

	c000 := ng.corner(X, Y, Z, fx, fy, fz)
	c100 := ng.corner(X+1, Y, Z, fx-1, fy, fz)
	c010 := ng.corner(X, Y+1, Z, fx, fy-1, fz)
	c110 := ng.corner(X+1, Y+1, Z, fx-1, fy-1, fz)
	c001 := ng.corner(X, Y, Z+1, fx, fy, fz-1)
	c101 := ng.corner(X+1, Y, Z+1, fx-1, fy, fz-1)
	c011 := ng.corner(X, Y+1, Z+1, fx, fy-1, fz-1)
	c111 := ng.corner(X+1, Y+1, Z+1, fx-1, fy-1, fz-1)

	u, v, w := fade(fx), fade(fy), fade(fz)

	y0 := interpolate(interpolate(c000, c100, u), interpolate(c010, c110, u), v)
	y1 := interpolate(interpolate(c001, c101, u), interpolate(c011, c111, u), v)
	return interpolate(y0, y1, w) * amplitude
}

// corner returns the gradient contribution of lattice corner (i, j, k) for a
// point at offset (dx, dy, dz) from it. i, j, k are in [0, 256].
func (ng *NoiseGenerator) corner(i, j, k int, dx, dy, dz float64) float64 {
	h := ng.perm[ng.perm[ng.perm[i]+j]+k]
	g := gradients[h&15]
	return g[0]*dx + g[1]*dy + g[2]*dz
}

func normalizeWavelength(wavelength float64) float64 {
	if wavelength <= 0 {
		return 1
	}
	return wavelength
}

// fade is 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// interpolate blends a and b with a cosine easing of t.
func interpolate(a, b, t float64) float64 {
	f := (1 - math.Cos(t*math.Pi)) * 0.5
	return a*(1-f) + b*f
}

func fastFloor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}
