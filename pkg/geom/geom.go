// Package geom holds the small numeric kernel the sweep is built on:
// quadratic solving, parabola intersection and circumcircle math over
// plain float64 points. Everything here is a pure function.
package geom

import "math"

const (
	// Epsilon is the coordinate comparison tolerance used throughout
	// the diagram construction.
	Epsilon = 1e-9
	// CoeffEpsilon classifies a quadratic coefficient or discriminant
	// as degenerate.
	CoeffEpsilon = 1e-12
	// ConvergenceEpsilon filters the circumcircle winding determinant;
	// triples this close to collinear produce no circle event.
	ConvergenceEpsilon = 2e-12
)

// Point is a position in the plane. Y grows downward, matching the
// sweep direction.
type Point struct {
	X float64
	Y float64
}

// NoPoint marks an endpoint that has not been set yet.
var NoPoint = Point{math.Inf(1), math.Inf(1)}

// Dist returns the euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func Equal(a, b float64) bool       { return math.Abs(a-b) < Epsilon }
func LessThan(a, b float64) bool    { return b-a > Epsilon }
func GreaterThan(a, b float64) bool { return a-b > Epsilon }

// SolveQuadratic returns the real roots of a·x² + b·x + c = 0 in
// ascending order together with their count. A leading coefficient
// within CoeffEpsilon of zero degrades to the linear solve instead of
// dividing by a near-zero a; a discriminant within CoeffEpsilon of
// zero reports the tangent case as a single root.
func SolveQuadratic(a, b, c float64) (roots [2]float64, n int) {
	if math.Abs(a) < CoeffEpsilon {
		if math.Abs(b) < CoeffEpsilon {
			return roots, 0
		}
		roots[0] = -c / b
		return roots, 1
	}
	disc := b*b - 4*a*c
	if disc < -CoeffEpsilon {
		return roots, 0
	}
	if disc < CoeffEpsilon {
		roots[0] = -b / (2 * a)
		return roots, 1
	}
	sq := math.Sqrt(disc)
	r1 := (-b - sq) / (2 * a)
	r2 := (-b + sq) / (2 * a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	roots[0], roots[1] = r1, r2
	return roots, 2
}

// BreakpointX returns the x-coordinate where the parabolas of the two
// foci intersect, with directrix y = sweepY, choosing the branch where
// left is the left beachline arc. A focus sitting exactly on the
// directrix degrades its parabola to a vertical ray through the focus;
// those cases are answered without division.
func BreakpointX(left, right Point, sweepY float64) float64 {
	pr := right.Y - sweepY
	if pr == 0 {
		return right.X
	}
	pl := left.Y - sweepY
	if pl == 0 {
		return left.X
	}

	// Equal-distance condition written as a quadratic in u = x - right.X.
	hl := left.X - right.X
	a := (1/pr - 1/pl) / 2
	b := hl / pl
	c := hl*hl/(-2*pl) - left.Y + pl/2 + right.Y - pr/2

	roots, n := SolveQuadratic(a, b, c)
	switch {
	case n == 0:
		return (left.X + right.X) / 2
	case n == 1:
		return roots[0] + right.X
	case a > 0:
		return roots[1] + right.X
	default:
		return roots[0] + right.X
	}
}

// Circumcircle reports the circle through the beachline triple
// (left, mid, right). ok is false when the sites are collinear or the
// triple is not converging (wound the wrong way for a shrinking middle
// arc); the caller schedules no circle event then.
func Circumcircle(left, mid, right Point) (center Point, radius float64, ok bool) {
	ax := left.X - mid.X
	ay := left.Y - mid.Y
	cx := right.X - mid.X
	cy := right.Y - mid.Y

	d := 2 * (ax*cy - ay*cx)
	if d >= -ConvergenceEpsilon {
		return Point{}, 0, false
	}

	ha := ax*ax + ay*ay
	hc := cx*cx + cy*cy
	x := (cy*ha - ay*hc) / d
	y := (ax*hc - cx*ha) / d
	return Point{X: x + mid.X, Y: y + mid.Y}, math.Sqrt(x*x + y*y), true
}
