package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// SimplifyLine reduces a line's vertex count with Douglas-Peucker at a
// tolerance given in meters. Endpoints are always preserved. A non-positive
// tolerance returns the line unchanged.
func SimplifyLine(line orb.LineString, tolMeters float64) orb.LineString {
	if tolMeters <= 0 || len(line) < 3 {
		return line
	}
	// Douglas-Peucker works in coordinate units; latitude degrees are the
	// shorter axis, so this slightly under-simplifies in longitude.
	tolDeg := tolMeters / metersPerDegreeLat
	return simplify.DouglasPeucker(tolDeg).Simplify(line.Clone()).(orb.LineString)
}
