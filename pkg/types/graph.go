package types

// Routing node kinds. Degree-based classification assigns endpoint,
// connector, and junction; intersection is the pre-simplification kind for
// any node of degree 2 or more.
const (
	NodeEndpoint     = "endpoint"     // degree 1
	NodeIntersection = "intersection" // degree >= 2, before simplification
	NodeConnector    = "connector"    // degree exactly 2, merge candidate
	NodeJunction     = "junction"     // degree >= 3, split candidate
)

// validNodeKinds is the set of recognized node kind values.
var validNodeKinds = map[string]bool{
	NodeEndpoint:     true,
	NodeIntersection: true,
	NodeConnector:    true,
	NodeJunction:     true,
}

// ValidNodeKind reports whether s is a recognized node kind.
func ValidNodeKind(s string) bool { return validNodeKinds[s] }

// Prediction is an externally supplied node classification: a predicted
// kind with a confidence in [0,1]. Confidence 1.0 is authoritative and
// overrides degree-based classification; anything lower is advisory only
// when degree classification is ambiguous.
type Prediction struct {
	Kind       string
	Confidence float64
}

// Node is a routing graph vertex. Two endpoints within the clustering
// tolerance are the same node; the builder guarantees no two node records
// represent the same physical point.
type Node struct {
	ID         int64
	Point      Point
	Kind       string   // one of the Node* constants
	TrailNames []string // sorted, deduplicated names terminating or passing here
}

// Edge is a routing graph edge between two distinct nodes. Self-loops are
// invalid: an edge whose endpoints cluster to the same node is dropped, not
// inserted.
type Edge struct {
	ID     int64
	Source int64
	Target int64

	TrailID   string // originating trail
	TrailName string

	LengthKm      float64
	ElevationGain float64 // meters, traversing Source -> Target
	ElevationLoss float64 // meters, positive

	Geom []Point // full line geometry, oriented Source -> Target
}

// LengthMeters returns the edge length in meters.
func (e *Edge) LengthMeters() float64 { return e.LengthKm * 1000 }

// Other returns the node on the opposite end of the edge from id.
// Behavior is undefined if id is neither endpoint.
func (e *Edge) Other(id int64) int64 {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}
