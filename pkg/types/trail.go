package types

import (
	"errors"

	"github.com/paulmach/orb"
)

// Trail is an input polyline with elevation. Trails produced by splitting
// carry DerivedFrom, pointing at the trail they were cut out of.
type Trail struct {
	ID     string  // UUID v7, generated on creation.
	Name   string  // Human-readable name; segments inherit the parent's name.
	Region string  // Region tag the trail was ingested under.
	Geom   []Point // Ordered 3D points, at least 2.

	// Derived stats, recomputed whenever Geom changes.
	LengthKm      float64 // 3D length in kilometers.
	ElevationGain float64 // Total climb in meters.
	ElevationLoss float64 // Total descent in meters (positive).
	MinElevation  float64
	MaxElevation  float64
	AvgElevation  float64

	DerivedFrom string // ID of the pre-split trail, empty for originals.
}

// Trail validation errors.
var (
	ErrTrailTooFewPoints = errors.New("trail needs at least 2 points")
	ErrTrailNoName       = errors.New("trail name must not be empty")
)

// Validate checks that the trail is structurally usable: a name and a point
// sequence with a well-defined start and end.
func (t *Trail) Validate() error {
	if t.Name == "" {
		return ErrTrailNoName
	}
	if len(t.Geom) < 2 {
		return ErrTrailTooFewPoints
	}
	return nil
}

// Start returns the first point of the trail.
func (t *Trail) Start() Point { return t.Geom[0] }

// End returns the last point of the trail.
func (t *Trail) End() Point { return t.Geom[len(t.Geom)-1] }

// LineString returns the 2D orb geometry of the trail.
func (t *Trail) LineString() orb.LineString {
	return LineString(t.Geom)
}

// LengthMeters returns the trail's 3D length in meters.
func (t *Trail) LengthMeters() float64 {
	return t.LengthKm * 1000
}
