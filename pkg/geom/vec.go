package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// GridPitch is the snap unit every routed coordinate is rounded to.
	GridPitch = 10.0

	// Epsilon is the "effectively zero" threshold for lengths and distances.
	// It is deliberately separate from caller-supplied tolerances: a tolerance
	// of 0 means "exact, up to Epsilon", never "disabled".
	Epsilon = 1e-9
)

// Point is a 2D pixel coordinate.
type Point = r2.Vec

// Vec is a 2D displacement.
type Vec = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+v.
func Add(p Point, v Vec) Point { return r2.Add(p, v) }

// Sub returns the displacement from q to p.
func Sub(p, q Point) Vec { return r2.Sub(p, q) }

// Scale returns f*v.
func Scale(f float64, v Vec) Vec { return r2.Scale(f, v) }

// Dot returns the dot product of a and b.
func Dot(a, b Vec) float64 { return r2.Dot(a, b) }

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b Vec) float64 { return r2.Cross(a, b) }

// Len returns the Euclidean length of v.
func Len(v Vec) float64 { return r2.Norm(v) }

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 { return r2.Norm(r2.Sub(a, b)) }

// Near reports whether a and b are within tol of each other.
// The comparison is floored at Epsilon, so tol == 0 still matches identical points.
func Near(a, b Point, tol float64) bool {
	return Dist(a, b) <= math.Max(tol, Epsilon)
}

// Normalized returns the unit vector along v, or the zero vector when v has
// (effectively) zero length. It never returns NaN components.
func Normalized(v Vec) Vec {
	if r2.Norm(v) <= Epsilon {
		return Vec{}
	}
	return r2.Unit(v)
}

// IsZero reports whether v is the zero vector (up to Epsilon).
func IsZero(v Vec) bool { return r2.Norm(v) <= Epsilon }

// IsCanonical reports whether v is an axis-aligned unit vector:
// one of (1,0), (-1,0), (0,1), (0,-1).
func IsCanonical(v Vec) bool {
	ax, ay := math.Abs(v.X), math.Abs(v.Y)
	switch {
	case ax <= Epsilon:
		return math.Abs(ay-1) <= Epsilon
	case ay <= Epsilon:
		return math.Abs(ax-1) <= Epsilon
	default:
		return false
	}
}

// Rotate90 rotates v a quarter turn: (x, y) -> (-y, x).
func Rotate90(v Vec) Vec { return Vec{X: -v.Y, Y: v.X} }

// SnapValue rounds f to the nearest multiple of GridPitch.
func SnapValue(f float64) float64 {
	return math.Round(f/GridPitch) * GridPitch
}

// Snap rounds both coordinates of p to the nearest multiple of GridPitch.
// Snap is idempotent.
func Snap(p Point) Point {
	return Point{X: SnapValue(p.X), Y: SnapValue(p.Y)}
}
