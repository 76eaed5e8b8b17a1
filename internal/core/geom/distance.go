package geom

import (
	"fmt"
	"math"
)

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Sub(b).Len()
}

// DistanceN returns the distance between two coordinate lists of the same
// size, 2 or 3.
func DistanceN(a, b []float64) (float64, error) {
	if len(a) != len(b) || (len(a) != 2 && len(a) != 3) {
		return 0, fmt.Errorf("distance needs two coordinate lists of the same size (2 or 3), got %d and %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Distance2D ignores Z.
func Distance2D(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Triples splits a flat coordinate array x1,y1,z1,x2,... into points.
func Triples(flat []float64) ([]Point, error) {
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("coordinate array length must be a multiple of three, got %d", len(flat))
	}
	out := make([]Point, 0, len(flat)/3)
	for i := 0; i < len(flat); i += 3 {
		out = append(out, Point{X: flat[i], Y: flat[i+1], Z: flat[i+2]})
	}
	return out, nil
}

// PathLength sums the segment lengths of an open path.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
