// Package geom provides the point arithmetic used when building coordinates
// for the CAD application.
package geom

import (
	"fmt"
	"math"
	"strconv"
)

// Point is a point or vector in 3D model space.
type Point struct {
	X, Y, Z float64
}

// Pt is shorthand for Point{x, y, z}.
func Pt(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// PointFrom builds a point from 3 coordinates, or 2 with Z = 0.
func PointFrom(coords []float64) (Point, error) {
	switch len(coords) {
	case 2:
		return Point{X: coords[0], Y: coords[1]}, nil
	case 3:
		return Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
	default:
		return Point{}, fmt.Errorf("point needs 2 or 3 coordinates, got %d", len(coords))
	}
}

// Splat returns a point with all coordinates set to v.
func Splat(v float64) Point {
	return Point{X: v, Y: v, Z: v}
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Mul multiplies component-wise.
func (p Point) Mul(q Point) Point { return Point{p.X * q.X, p.Y * q.Y, p.Z * q.Z} }

// Div divides component-wise. Division by a zero component yields ±Inf or
// NaN as in float64 arithmetic.
func (p Point) Div(q Point) Point { return Point{p.X / q.X, p.Y / q.Y, p.Z / q.Z} }

func (p Point) AddScalar(v float64) Point { return p.Add(Splat(v)) }
func (p Point) SubScalar(v float64) Point { return p.Sub(Splat(v)) }
func (p Point) Scale(v float64) Point     { return p.Mul(Splat(v)) }
func (p Point) DivScalar(v float64) Point { return p.Div(Splat(v)) }

// Equal reports exact equality of all coordinates.
func (p Point) Equal(q Point) bool {
	return p.X == q.X && p.Y == q.Y && p.Z == q.Z
}

// Coordinates returns [x, y, z], the form the application expects for a
// point argument.
func (p Point) Coordinates() []float64 {
	return []float64{p.X, p.Y, p.Z}
}

// Len returns the distance from the origin.
func (p Point) Len() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

func (p Point) String() string {
	return fmt.Sprintf("(x=%s, y=%s, z=%s)", format(p.X), format(p.Y), format(p.Z))
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
