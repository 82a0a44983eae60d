// Package cubesphere lays a square grid over each face of a cube and projects
// the grid points radially onto a sphere.
package cubesphere

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfiguration is returned for grid parameters that cannot produce
// a mesh.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Face describes one cube face: the corner grid point (0, 0) as a sign pattern
// of the half edge, and the unit vectors walked for the y and x grid axes.
type Face struct {
	Corner mgl64.Vec3
	First  mgl64.Vec3 // advanced by the y index
	Second mgl64.Vec3 // advanced by the x index
}

// Faces is the canonical cube-to-sphere layout. Adjacent faces share edge
// vertices, and the triangulation in package mesh winds clockwise seen from
// outside on every face.
//
//	0: +X   1: +Y   2: -X   3: -Y   4: +Z   5: -Z
var Faces = [6]Face{
	{Corner: mgl64.Vec3{1, -1, 1}, First: mgl64.Vec3{0, 1, 0}, Second: mgl64.Vec3{0, 0, -1}},
	{Corner: mgl64.Vec3{1, 1, 1}, First: mgl64.Vec3{-1, 0, 0}, Second: mgl64.Vec3{0, 0, -1}},
	{Corner: mgl64.Vec3{-1, 1, 1}, First: mgl64.Vec3{0, -1, 0}, Second: mgl64.Vec3{0, 0, -1}},
	{Corner: mgl64.Vec3{-1, -1, 1}, First: mgl64.Vec3{1, 0, 0}, Second: mgl64.Vec3{0, 0, -1}},
	{Corner: mgl64.Vec3{1, 1, 1}, First: mgl64.Vec3{0, -1, 0}, Second: mgl64.Vec3{-1, 0, 0}},
	{Corner: mgl64.Vec3{1, -1, -1}, First: mgl64.Vec3{0, 1, 0}, Second: mgl64.Vec3{-1, 0, 0}},
}

// Outward returns the unit axis the face looks along.
func (f Face) Outward() mgl64.Vec3 {
	return f.Second.Cross(f.First)
}

// Grid is the subdivided cube for one radius.
type Grid struct {
	Radius        float64
	SideDivisions int     // grid points per cube edge
	Half          float64 // half the cube edge, radius/√3
	Step          float64 // distance between neighbouring grid points
}

// NewGrid builds the grid for a sphere of radius with divisions total
// subdivisions; only divisions/2 points per cube edge are used.
func NewGrid(radius float64, divisions int) (Grid, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return Grid{}, fmt.Errorf("%w: radius %v must be positive and finite", ErrInvalidConfiguration, radius)
	}
	side := divisions / 2
	if side < 2 {
		return Grid{}, fmt.Errorf("%w: divisions %d gives %d points per cube edge, need at least 2", ErrInvalidConfiguration, divisions, side)
	}

	half := radius / math.Sqrt(3)
	return Grid{
		Radius:        radius,
		SideDivisions: side,
		Half:          half,
		Step:          2 * half / float64(side-1),
	}, nil
}

// Point returns grid point (x, y) of face on the cube surface.
func (g Grid) Point(face, x, y int) mgl64.Vec3 {
	f := Faces[face]
	return f.Corner.Mul(g.Half).
		Add(f.First.Mul(float64(y) * g.Step)).
		Add(f.Second.Mul(float64(x) * g.Step))
}

// SpherePoint returns grid point (x, y) of face projected onto the sphere.
func (g Grid) SpherePoint(face, x, y int) mgl64.Vec3 {
	return ProjectToSphere(g.Point(face, x, y), g.Radius)
}

// ProjectToSphere rescales point along its own direction so that its length
// becomes radius. The zero vector has no direction and is returned unchanged.
func ProjectToSphere(point mgl64.Vec3, radius float64) mgl64.Vec3 {
	l := point.Len()
	if l == 0 {
		return point
	}
	return point.Mul(radius / l)
}
