package geometry

import (
	"math"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// LineLocate returns the position of the point on the polyline closest to p,
// as a ratio in [0,1] of the line's 2D length.
func LineLocate(line []types.Point, p types.Point) float64 {
	_, _, ratio := ClosestPoint(line, p)
	return ratio
}

// ClosestPoint projects p onto the polyline and returns the closest point on
// the line, its distance from p in meters, and its position as a length
// ratio in [0,1]. The returned point's elevation is interpolated.
func ClosestPoint(line []types.Point, p types.Point) (types.Point, float64, float64) {
	if len(line) == 0 {
		return types.Point{}, math.Inf(1), 0
	}
	if len(line) == 1 {
		return line[0], Haversine(line[0], p), 0
	}

	pr := newProjection(line[0])
	px, py := pr.to(p)

	best := math.Inf(1)
	var bestPt types.Point
	var bestDistAlong float64

	var distAlong float64
	total := 0.0
	segLens := make([]float64, len(line)-1)
	for i := 0; i < len(line)-1; i++ {
		segLens[i] = Haversine(line[i], line[i+1])
		total += segLens[i]
	}

	for i := 0; i < len(line)-1; i++ {
		ax, ay := pr.to(line[i])
		bx, by := pr.to(line[i+1])
		t := projectParam(px, py, ax, ay, bx, by)
		cx := ax + t*(bx-ax)
		cy := ay + t*(by-ay)
		d := math.Hypot(px-cx, py-cy)
		if d < best {
			best = d
			c := pr.from(cx, cy)
			c.Elevation = line[i].Elevation + t*(line[i+1].Elevation-line[i].Elevation)
			bestPt = c
			bestDistAlong = distAlong + t*segLens[i]
		}
		distAlong += segLens[i]
	}

	if total <= 0 {
		return bestPt, best, 0
	}
	return bestPt, best, math.Max(0, math.Min(1, bestDistAlong/total))
}

// projectParam returns the clamped parameter of the projection of (px,py)
// onto segment (ax,ay)-(bx,by).
func projectParam(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	rr := dx*dx + dy*dy
	if rr < 1e-12 {
		return 0
	}
	t := ((px-ax)*dx + (py-ay)*dy) / rr
	return math.Max(0, math.Min(1, t))
}

// DistanceToLine returns the distance in meters from p to the polyline.
func DistanceToLine(line []types.Point, p types.Point) float64 {
	_, d, _ := ClosestPoint(line, p)
	return d
}

// Substring extracts the part of a polyline between two length ratios,
// interpolating the cut points (including elevation). Ratios are clamped
// and swapped into order. The result always has at least 2 points unless
// the ratios collapse to the same position, in which case nil is returned.
func Substring(line []types.Point, r0, r1 float64) []types.Point {
	if len(line) < 2 {
		return nil
	}
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	r0 = math.Max(0, r0)
	r1 = math.Min(1, r1)
	if r1-r0 <= 0 {
		return nil
	}

	total := Length2DMeters(line)
	if total <= 0 {
		return nil
	}
	d0 := r0 * total
	d1 := r1 * total

	var out []types.Point
	var walked float64
	for i := 0; i < len(line)-1; i++ {
		segLen := Haversine(line[i], line[i+1])
		segStart := walked
		segEnd := walked + segLen
		walked = segEnd
		if segLen <= 0 {
			continue
		}

		if segEnd < d0 {
			continue
		}
		if segStart > d1 {
			break
		}

		if segStart <= d0 && d0 <= segEnd && len(out) == 0 {
			out = appendPoint(out, interpolate(line[i], line[i+1], (d0-segStart)/segLen))
		}
		if segStart < d1 && segEnd <= d1 {
			// Whole tail of this segment is inside the window.
			out = appendPoint(out, line[i+1])
			continue
		}
		if segStart <= d1 && d1 <= segEnd {
			out = appendPoint(out, interpolate(line[i], line[i+1], (d1-segStart)/segLen))
			break
		}
	}

	if len(out) < 2 {
		return nil
	}
	return out
}

// appendPoint appends p unless it duplicates the last point exactly.
func appendPoint(pts []types.Point, p types.Point) []types.Point {
	if n := len(pts); n > 0 {
		last := pts[n-1]
		if last.Lon == p.Lon && last.Lat == p.Lat {
			return pts
		}
	}
	return append(pts, p)
}

// interpolate returns the point at parameter t along segment a-b.
func interpolate(a, b types.Point, t float64) types.Point {
	return types.Point{
		Lon:       a.Lon + t*(b.Lon-a.Lon),
		Lat:       a.Lat + t*(b.Lat-a.Lat),
		Elevation: a.Elevation + t*(b.Elevation-a.Elevation),
	}
}
