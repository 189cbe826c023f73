// Package geometry is the geometry kernel for the topology engine: length
// and distance on a curved-earth model, polyline intersection, line locate
// and substring extraction, and closest-point projection.
//
// Distances are meters. Coordinates are WGS84 degrees with elevations in
// meters. Intersection math runs in a local equirectangular projection
// around the geometry being tested, which is accurate at trail-network
// scale (a few tens of kilometers).
package geometry

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// earthRadiusM is the mean earth radius used for all curved-earth math.
const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance between two points in meters,
// ignoring elevation.
func Haversine(a, b types.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return earthRadiusM * c
}

// Distance3D returns the distance between two points in meters, combining
// the great-circle distance with the elevation delta.
func Distance3D(a, b types.Point) float64 {
	h := Haversine(a, b)
	dz := b.Elevation - a.Elevation
	return math.Sqrt(h*h + dz*dz)
}

// LengthMeters returns the 3D length of a polyline in meters.
func LengthMeters(pts []types.Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Distance3D(pts[i-1], pts[i])
	}
	return total
}

// Length2DMeters returns the great-circle length of a polyline in meters,
// ignoring elevation. Line locate and substring ratios are measured on this
// length so they stay consistent with 2D intersection math.
func Length2DMeters(pts []types.Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Haversine(pts[i-1], pts[i])
	}
	return total
}

// ElevationStats returns total gain, total loss (positive), and the
// min/max/avg elevation of a polyline. Points with elevation 0 are treated
// as real values; callers sample elevations before ingest.
func ElevationStats(pts []types.Point) (gain, loss, min, max, avg float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0, 0
	}
	min = pts[0].Elevation
	max = pts[0].Elevation
	var sum float64
	for i, p := range pts {
		sum += p.Elevation
		if p.Elevation < min {
			min = p.Elevation
		}
		if p.Elevation > max {
			max = p.Elevation
		}
		if i > 0 {
			dz := p.Elevation - pts[i-1].Elevation
			if dz > 0 {
				gain += dz
			} else {
				loss -= dz
			}
		}
	}
	return gain, loss, min, max, sum / float64(len(pts))
}

// Bound returns the 2D bounding box of a polyline padded by pad meters on
// every side.
func Bound(pts []types.Point, pad float64) orb.Bound {
	b := types.LineString(pts).Bound()
	if pad <= 0 {
		return b
	}
	dLat := pad / metersPerDegreeLat
	midLat := (b.Min[1] + b.Max[1]) / 2
	dLon := pad / metersPerDegreeLon(midLat)
	return orb.Bound{
		Min: orb.Point{b.Min[0] - dLon, b.Min[1] - dLat},
		Max: orb.Point{b.Max[0] + dLon, b.Max[1] + dLat},
	}
}

// metersPerDegreeLat is the length of one degree of latitude.
const metersPerDegreeLat = earthRadiusM * math.Pi / 180

// metersPerDegreeLon returns the length of one degree of longitude at the
// given latitude.
func metersPerDegreeLon(lat float64) float64 {
	m := metersPerDegreeLat * math.Cos(lat*math.Pi/180)
	if m < 1 {
		// Degenerate near the poles; trail data never lives there but the
		// projection must not divide by zero.
		return 1
	}
	return m
}

// projection is a local equirectangular projection anchored at a reference
// point. Planar coordinates are meters east/north of the anchor.
type projection struct {
	lon0, lat0 float64
	mLon       float64
}

func newProjection(anchor types.Point) projection {
	return projection{lon0: anchor.Lon, lat0: anchor.Lat, mLon: metersPerDegreeLon(anchor.Lat)}
}

func (pr projection) to(p types.Point) (x, y float64) {
	return (p.Lon - pr.lon0) * pr.mLon, (p.Lat - pr.lat0) * metersPerDegreeLat
}

func (pr projection) from(x, y float64) types.Point {
	return types.Point{Lon: pr.lon0 + x/pr.mLon, Lat: pr.lat0 + y/metersPerDegreeLat}
}
