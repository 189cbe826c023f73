package geometry

import (
	"math"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// ResultKind tags the outcome of a polyline intersection test.
type ResultKind int

const (
	// ResultNone means the polylines do not meet.
	ResultNone ResultKind = iota
	// ResultPoint means exactly one intersection point.
	ResultPoint
	// ResultMultiPoint means two or more distinct intersection points.
	ResultMultiPoint
	// ResultOverlap means the polylines run collinear for a stretch longer
	// than the tolerance. Degenerate: reported, never split.
	ResultOverlap
)

// Result is the outcome of Intersect. Points carries the distinct
// intersection points (deduplicated within tolerance); elevations are
// interpolated from the first polyline.
type Result struct {
	Kind   ResultKind
	Points []types.Point
}

// Intersect computes the geometric intersection of two polylines. Points
// closer than tol meters are treated as one. A collinear overlap longer
// than tol anywhere along the pair turns the whole result into
// ResultOverlap.
func Intersect(a, b []types.Point, tol float64) Result {
	if len(a) < 2 || len(b) < 2 {
		return Result{Kind: ResultNone}
	}

	pr := newProjection(a[0])
	ax := make([]float64, len(a))
	ay := make([]float64, len(a))
	for i, p := range a {
		ax[i], ay[i] = pr.to(p)
	}
	bx := make([]float64, len(b))
	by := make([]float64, len(b))
	for i, p := range b {
		bx[i], by[i] = pr.to(p)
	}

	var pts []types.Point
	overlap := false
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			hit, over, x, y, t := segmentIntersect(
				ax[i], ay[i], ax[i+1], ay[i+1],
				bx[j], by[j], bx[j+1], by[j+1],
				tol,
			)
			if over {
				overlap = true
				continue
			}
			if !hit {
				continue
			}
			p := pr.from(x, y)
			p.Elevation = a[i].Elevation + t*(a[i+1].Elevation-a[i].Elevation)
			pts = appendUnique(pts, p, tol)
		}
	}

	switch {
	case overlap:
		return Result{Kind: ResultOverlap, Points: pts}
	case len(pts) == 0:
		return Result{Kind: ResultNone}
	case len(pts) == 1:
		return Result{Kind: ResultPoint, Points: pts}
	default:
		return Result{Kind: ResultMultiPoint, Points: pts}
	}
}

// segmentIntersect intersects segments p1p2 and q1q2 in planar meters.
// Returns hit with the intersection point and the parameter t along p1p2,
// or over when the segments are collinear and overlap by more than tol.
func segmentIntersect(p1x, p1y, p2x, p2y, q1x, q1y, q2x, q2y, tol float64) (hit, over bool, x, y, t float64) {
	rx, ry := p2x-p1x, p2y-p1y
	sx, sy := q2x-q1x, q2y-q1y

	denom := rx*sy - ry*sx
	qpx, qpy := q1x-p1x, q1y-p1y

	if math.Abs(denom) < 1e-12 {
		// Parallel. Check collinearity via the cross product of qp and r.
		if math.Abs(qpx*ry-qpy*rx) > tol*math.Hypot(rx, ry) {
			return false, false, 0, 0, 0
		}
		// Collinear: project q endpoints onto p's axis and measure overlap.
		rr := rx*rx + ry*ry
		if rr < 1e-12 {
			return false, false, 0, 0, 0
		}
		t0 := (qpx*rx + qpy*ry) / rr
		t1 := ((q2x-p1x)*rx + (q2y-p1y)*ry) / rr
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		lo := math.Max(t0, 0)
		hi := math.Min(t1, 1)
		if hi <= lo {
			return false, false, 0, 0, 0
		}
		if (hi-lo)*math.Sqrt(rr) > tol {
			return false, true, 0, 0, 0
		}
		// Overlap shorter than tolerance collapses to a single touch point.
		mid := (lo + hi) / 2
		return true, false, p1x + mid*rx, p1y + mid*ry, mid
	}

	t = (qpx*sy - qpy*sx) / denom
	u := (qpx*ry - qpy*rx) / denom

	// Allow a tolerance margin past the segment ends so touches that
	// float-drift just off the end still register.
	slackT := tol / math.Max(math.Hypot(rx, ry), 1e-9)
	slackU := tol / math.Max(math.Hypot(sx, sy), 1e-9)
	if t < -slackT || t > 1+slackT || u < -slackU || u > 1+slackU {
		return false, false, 0, 0, 0
	}
	t = math.Max(0, math.Min(1, t))
	return true, false, p1x + t*rx, p1y + t*ry, t
}

// appendUnique adds p to pts unless an existing point is within tol meters.
func appendUnique(pts []types.Point, p types.Point, tol float64) []types.Point {
	for _, q := range pts {
		if Haversine(p, q) <= tol {
			return pts
		}
	}
	return append(pts, p)
}
