package types

import "github.com/paulmach/orb"

// Point is a 3D trail coordinate: longitude and latitude in degrees
// (WGS84), elevation in meters. Elevation 0 means "unknown" in raw input;
// derived stats treat it as a real value once set.
type Point struct {
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	Elevation float64 `json:"elevation"`
}

// Orb returns the 2D orb representation of the point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// PointFromOrb lifts a 2D orb point to a Point with the given elevation.
func PointFromOrb(op orb.Point, elevation float64) Point {
	return Point{Lon: op[0], Lat: op[1], Elevation: elevation}
}

// LineString converts a point sequence to a 2D orb.LineString, dropping
// elevations.
func LineString(pts []Point) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = p.Orb()
	}
	return ls
}
