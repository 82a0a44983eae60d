// Package terrain turns raw noise samples into radial elevation offsets.
//
// Two octaves are sampled at every point. The large one is split into a
// mountain part (positive side) and an ocean part (negative side), each shaped
// by its own exponent, then fed through Landscape, which blends a flat abyssal
// floor, a quadratic sea floor and an exponential mountain profile with tanh
// gates instead of hard thresholds.
package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
)

// abyss is the landscape value approached for strongly negative noise.
const abyss = -0.8

// reliefScale divides the radius to get the displacement denominator.
const reliefScale = 10.0

// NoiseParameters selects the large octave; the small octave is derived from it.
type NoiseParameters struct {
	Wavelength float64
	Amplitude  float64
}

// Parameters shapes the combined noise value.
type Parameters struct {
	OceanExponent    float64
	MountainExponent float64
	// Offset shifts the noise sampling domain, giving a different terrain
	// without reseeding.
	Offset float64
}

// Smooth is a tanh step centered at point with the given width.
func Smooth(x, point, rate float64) float64 {
	return 0.5 + 0.5*math.Tanh((x-point)/rate)
}

// Sea is the sea-floor profile.
func Sea(n float64) float64 {
	return (n+1)*(n+1) - 1
}

// Mountains is the mountain profile.
func Mountains(n float64) float64 {
	return math.Exp(3.2*n-5) + n/2
}

// Landscape maps a combined noise value to an elevation offset.
func Landscape(n float64) float64 {
	h1 := Smooth(n, 0, 0.1)
	h2 := Smooth(n, -0.4, 0.2)
	return abyss*(1-h2) + Sea(n)*h2*(1-h1) + Mountains(n)*h1
}

// Combine splits a raw sample into mountain and ocean parts and applies the
// exponents. An exponent of 0 flattens its term to 1.
func Combine(raw float64, p Parameters) float64 {
	mountain := math.Pow(clamp(raw, 0, 1), p.MountainExponent)
	ocean := math.Pow(math.Abs(clamp(raw, -1, 0)), p.OceanExponent)
	return mountain - ocean
}

// Shape maps a raw large-octave sample to its landscape offset.
func Shape(raw float64, p Parameters) float64 {
	return Landscape(Combine(raw, p))
}

// Elevation returns the radial scale factor for a point on the sphere of the
// given radius. Zero amplitude disables relief and returns exactly 1.
func Elevation(field noise.Field, position mgl64.Vec3, radius float64, np NoiseParameters, p Parameters) float64 {
	if np.Amplitude == 0 {
		return 1
	}

	// The radius shift keeps samples away from the lattice origin, where the
	// gradient field is pinned to zero.
	shift := p.Offset + radius
	x, y, z := position[0]+shift, position[1]+shift, position[2]+shift

	large := field.Noise3D(x, y, z, np.Wavelength, np.Amplitude)
	small := field.Noise3D(x, y, z, np.Wavelength/2, np.Amplitude/3)

	return 1 + (Shape(large, p)+small)/(radius/reliefScale)
}

// ApplyLandscape displaces a sphere point radially by its elevation.
func ApplyLandscape(field noise.Field, position mgl64.Vec3, radius float64, np NoiseParameters, p Parameters) mgl64.Vec3 {
	return position.Mul(Elevation(field, position, radius, np, p))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
