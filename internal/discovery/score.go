package discovery

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Deviation weights for the similarity score. Distance dominates because
// riders pick a route by length first and climb second.
const (
	distanceWeight  = 0.7
	elevationWeight = 0.3
)

// band is the acceptable total-distance window in meters.
type band struct{ lo, hi float64 }

func (b band) contains(meters float64) bool {
	return meters >= b.lo && meters <= b.hi
}

// targetBand derives the distance window from the target and tolerance
// percentage.
func targetBand(cfg types.Config) band {
	target := cfg.TargetDistanceKm * 1000
	slack := target * cfg.TolerancePercent / 100
	return band{lo: target - slack, hi: target + slack}
}

// score rates a candidate's closeness to the requested target in [0,1]:
// normalized distance deviation and elevation deviation, combined by the
// fixed weights. A zero elevation target disables the elevation term.
func score(cfg types.Config, lengthM, gainM float64) float64 {
	target := cfg.TargetDistanceKm * 1000
	dd := math.Abs(lengthM-target) / target

	var de float64
	if cfg.TargetElevationM > 0 {
		de = math.Abs(gainM-cfg.TargetElevationM) / cfg.TargetElevationM
	}
	s := 1 - distanceWeight*dd - elevationWeight*de
	if s < 0 {
		return 0
	}
	return s
}

// traversal is one directed pass over an edge while walking a route.
type traversal struct {
	edge    *types.Edge
	reverse bool
}

// assemble turns an ordered traversal sequence into an immutable Route.
func assemble(cfg types.Config, shape string, walk []traversal) *types.Route {
	var (
		lengthKm float64
		gain     float64
		edgeIDs  = make([]int64, 0, len(walk))
		seen     = make(map[int64]int)
		trails   = make(map[string]bool)
		names    []string
	)
	for _, tr := range walk {
		e := tr.edge
		edgeIDs = append(edgeIDs, e.ID)
		lengthKm += e.LengthKm
		if tr.reverse {
			gain += e.ElevationLoss
		} else {
			gain += e.ElevationGain
		}
		seen[e.ID]++
		if !trails[e.TrailID] {
			trails[e.TrailID] = true
			names = append(names, e.TrailName)
		}
	}

	repeats := 0
	for _, n := range seen {
		if n > 1 {
			repeats += n - 1
		}
	}
	overlap := 0.0
	if len(walk) > 0 {
		overlap = float64(repeats) / float64(len(walk))
	}

	id := routeID()
	return &types.Route{
		ID:            id,
		Name:          routeName(names, shape, lengthKm),
		Shape:         shape,
		EdgeIDs:       edgeIDs,
		LengthKm:      lengthKm,
		ElevationGain: gain,
		Score:         score(cfg, lengthKm*1000, gain),
		Overlap:       overlap,
		TrailCount:    len(trails),
		CreatedAt:     time.Now().UTC(),
	}
}

// routeID generates a UUID v7 route id, falling back to v4.
func routeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// routeName builds a presentable name from up to two trail names, the
// shape, and the rounded distance.
func routeName(names []string, shape string, lengthKm float64) string {
	sort.Strings(names)
	if len(names) > 2 {
		names = names[:2]
	}
	base := strings.Join(names, " / ")
	if base == "" {
		base = "Unnamed"
	}
	return fmt.Sprintf("%s %s - %.1fkm", base, shapeTitle(shape), lengthKm)
}

func shapeTitle(shape string) string {
	switch shape {
	case types.ShapeLoop:
		return "Loop"
	case types.ShapePointToPoint:
		return "Route"
	case types.ShapeOutAndBack:
		return "Out-and-Back"
	case types.ShapeLollipop:
		return "Lollipop"
	default:
		return "Route"
	}
}

// signature returns an order-independent identity for a route: the sorted
// multiset of its edge traversals. Two candidates with the same signature
// are the same route found by different passes.
func signature(r *types.Route) string {
	ids := make([]int64, len(r.EdgeIDs))
	copy(ids, r.EdgeIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%d,", id)
	}
	return sb.String()
}
