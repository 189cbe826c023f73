package types

// IntersectionKind classifies how two trails meet. The set is closed so
// downstream stages can switch over it exhaustively instead of comparing
// ad-hoc strings.
type IntersectionKind int

const (
	// KindXCrossing is a single point interior to both trails.
	KindXCrossing IntersectionKind = iota
	// KindTIntersection is one trail's endpoint landing on the other
	// trail's interior.
	KindTIntersection
	// KindSharedEndpoint is both trails' endpoints coinciding within
	// tolerance. Nothing to cut, but the endpoint must cluster to one node.
	KindSharedEndpoint
	// KindDual is exactly two intersection points, one interior and one
	// endpoint-adjacent.
	KindDual
	// KindDoubleX is exactly two intersection points, both interior.
	KindDoubleX
	// KindPIntersection is more than two intersection points (braided
	// trails).
	KindPIntersection
	// KindNearMiss is a trail endpoint within the near-miss tolerance of
	// another trail's line without touching it; snapped before splitting.
	KindNearMiss
	// KindDegenerate is a collinear or zero-length overlap. Reported but
	// never split.
	KindDegenerate
)

var intersectionKindNames = map[IntersectionKind]string{
	KindXCrossing:      "x-crossing",
	KindTIntersection:  "t-intersection",
	KindSharedEndpoint: "shared-endpoint",
	KindDual:           "dual",
	KindDoubleX:        "double-x",
	KindPIntersection:  "p-intersection",
	KindNearMiss:       "near-miss",
	KindDegenerate:     "degenerate",
}

// String returns the export name of the kind.
func (k IntersectionKind) String() string {
	if s, ok := intersectionKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Splittable reports whether trails participating in an intersection of
// this kind get cut by the splitter. Shared endpoints already meet at
// endpoints; degenerate overlaps are warned about and skipped.
func (k IntersectionKind) Splittable() bool {
	switch k {
	case KindSharedEndpoint, KindDegenerate:
		return false
	default:
		return true
	}
}

// TrailRef names one trail participating in an intersection.
type TrailRef struct {
	ID   string
	Name string
}

// IntersectionPoint is a detected meeting of two trails. Points are produced
// fresh on every detection pass and never mutated; a new pass after
// splitting supersedes the previous set.
type IntersectionPoint struct {
	Point  Point
	Trails []TrailRef // Ordered: first the pair tested, then any extras.
	Kind   IntersectionKind

	// DistToEndpoint is the distance in meters from the intersection point
	// to the nearest endpoint of either trail, used for near-miss and
	// endpoint-adjacency decisions.
	DistToEndpoint float64

	// EndpointTrailID is set for near-miss and T intersections: the trail
	// whose endpoint terminates at (or gets snapped onto) the other trail.
	EndpointTrailID string
}
