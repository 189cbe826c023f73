package types

import "time"

// Route shapes. A route's shape describes its topology, matching the
// route_shape column of the export database.
const (
	ShapeLoop         = "loop"
	ShapePointToPoint = "point-to-point"
	ShapeOutAndBack   = "out-and-back"
	ShapeLollipop     = "lollipop"
)

// validRouteShapes is the set of recognized route shape values.
var validRouteShapes = map[string]bool{
	ShapeLoop:         true,
	ShapePointToPoint: true,
	ShapeOutAndBack:   true,
	ShapeLollipop:     true,
}

// ValidRouteShape reports whether s is a recognized route shape.
func ValidRouteShape(s string) bool { return validRouteShapes[s] }

// Route is a discovered route recommendation: an ordered edge sequence
// forming a path or circuit, scored against a requested target. Routes are
// immutable once produced; they are consumed only for export.
type Route struct {
	ID    string // UUID v7
	Name  string
	Shape string // one of the Shape* constants

	EdgeIDs []int64 // traversal order; edges may repeat on out-and-back legs

	LengthKm      float64
	ElevationGain float64 // meters

	// Score is the similarity to the requested target in [0,1]; 1 means a
	// perfect distance and elevation match.
	Score float64

	// Overlap is the fraction of edge traversals that revisit an already
	// used edge. A pure loop has overlap 0; an out-and-back has 0.5.
	Overlap float64

	// TrailCount is the number of distinct trails the route touches.
	TrailCount int

	CreatedAt time.Time
}
