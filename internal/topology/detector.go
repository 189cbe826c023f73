package topology

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Detector finds and classifies all pairwise trail intersections.
type Detector struct {
	cfg types.Config
	log *slog.Logger
}

// NewDetector creates a detector with the given tolerances.
func NewDetector(cfg types.Config, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{cfg: cfg, log: log}
}

// Detect produces all intersection points of the current trail set. Trails
// below the minimum length are excluded from the search. Pair tests run in
// parallel; results are merged afterward.
func (d *Detector) Detect(ctx context.Context, trails []*types.Trail) ([]types.IntersectionPoint, *types.Diagnostics, error) {
	diag := &types.Diagnostics{}

	eligible := make([]*types.Trail, 0, len(trails))
	for _, t := range trails {
		if err := t.Validate(); err != nil {
			diag.Warn(types.ErrGeometry, "detector", t.ID, err.Error())
			diag.TrailsRejected++
			continue
		}
		if t.LengthMeters() < d.cfg.MinTrailLength {
			diag.TrailsFiltered++
			continue
		}
		eligible = append(eligible, t)
	}

	// Pad bounds by the near-miss tolerance so near misses survive the
	// bounding-box cull.
	bounds := make([]orb.Bound, len(eligible))
	for i, t := range eligible {
		bounds[i] = geometry.Bound(t.Geom, d.cfg.NearMissTolerance)
	}

	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			if bounds[i].Intersects(bounds[j]) {
				pairs = append(pairs, pair{i, j})
			}
		}
	}

	workers := d.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu     sync.Mutex
		points []types.IntersectionPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range pairs {
		a, b := eligible[p.i], eligible[p.j]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			local := &types.Diagnostics{}
			pts := d.detectPair(a, b, local)
			mu.Lock()
			points = append(points, pts...)
			diag.Merge(local)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, diag, err
	}

	d.log.Debug("intersection detection pass",
		"trails", len(eligible), "pairs", len(pairs), "points", len(points))
	return points, diag, nil
}

// detectPair intersects one trail pair and classifies the result, then
// checks both trails' endpoints for near misses against the other line.
func (d *Detector) detectPair(a, b *types.Trail, diag *types.Diagnostics) []types.IntersectionPoint {
	tol := d.cfg.IntersectionTolerance
	res := geometry.Intersect(a.Geom, b.Geom, tol)

	refs := []types.TrailRef{{ID: a.ID, Name: a.Name}, {ID: b.ID, Name: b.Name}}
	var out []types.IntersectionPoint

	switch res.Kind {
	case geometry.ResultOverlap:
		p := a.Start()
		if len(res.Points) > 0 {
			p = res.Points[0]
		}
		diag.Warn(types.ErrGeometry, "detector", a.ID,
			"collinear overlap with "+b.ID+", excluded from splitting")
		out = append(out, types.IntersectionPoint{Point: p, Trails: refs, Kind: types.KindDegenerate})

	case geometry.ResultPoint:
		out = append(out, d.classifyPoint(res.Points[0], a, b, refs))

	case geometry.ResultMultiPoint:
		kind := types.KindPIntersection
		if len(res.Points) == 2 {
			nearEnd := 0
			for _, p := range res.Points {
				if d.endpointDistance(p, a) <= tol || d.endpointDistance(p, b) <= tol {
					nearEnd++
				}
			}
			switch nearEnd {
			case 0:
				kind = types.KindDoubleX
			case 1:
				kind = types.KindDual
			default:
				// Both hits endpoint-adjacent: a closed parallel pair.
				// Nothing to cut, the endpoints cluster to shared nodes.
				kind = types.KindSharedEndpoint
			}
		}
		for _, p := range res.Points {
			ip := types.IntersectionPoint{
				Point:          p,
				Trails:         refs,
				Kind:           kind,
				DistToEndpoint: math.Min(d.endpointDistance(p, a), d.endpointDistance(p, b)),
			}
			out = append(out, ip)
		}
	}

	out = append(out, d.nearMisses(a, b, res)...)
	out = append(out, d.nearMisses(b, a, res)...)
	return out
}

// classifyPoint tags a single intersection point by where it falls on each
// trail: both endpoints is a shared-endpoint join, one endpoint is a T, and
// interior on both is an X-crossing.
func (d *Detector) classifyPoint(p types.Point, a, b *types.Trail, refs []types.TrailRef) types.IntersectionPoint {
	tol := d.cfg.IntersectionTolerance
	da := d.endpointDistance(p, a)
	db := d.endpointDistance(p, b)

	ip := types.IntersectionPoint{
		Point:          p,
		Trails:         refs,
		DistToEndpoint: math.Min(da, db),
	}
	switch {
	case da <= tol && db <= tol:
		ip.Kind = types.KindSharedEndpoint
	case da <= tol:
		ip.Kind = types.KindTIntersection
		ip.EndpointTrailID = a.ID
	case db <= tol:
		ip.Kind = types.KindTIntersection
		ip.EndpointTrailID = b.ID
	default:
		ip.Kind = types.KindXCrossing
	}
	return ip
}

// nearMisses reports endpoints of from that approach the line of onto
// within the near-miss tolerance without touching it. The snapped point on
// onto becomes the intersection point; from is recorded as the terminating
// trail.
func (d *Detector) nearMisses(from, onto *types.Trail, res geometry.Result) []types.IntersectionPoint {
	tol := d.cfg.IntersectionTolerance
	var out []types.IntersectionPoint
	for _, ep := range []types.Point{from.Start(), from.End()} {
		// An endpoint already participating in a touch is not a near miss.
		touching := false
		for _, p := range res.Points {
			if geometry.Haversine(ep, p) <= tol {
				touching = true
				break
			}
		}
		if touching {
			continue
		}

		snapped, dist, _ := geometry.ClosestPoint(onto.Geom, ep)
		if dist <= tol || dist > d.cfg.NearMissTolerance {
			continue
		}
		// Snaps landing at onto's own endpoint are trailhead joins the node
		// clustering handles; only interior snaps need a split.
		if d.endpointDistance(snapped, onto) <= tol {
			continue
		}
		out = append(out, types.IntersectionPoint{
			Point:           snapped,
			Trails:          []types.TrailRef{{ID: from.ID, Name: from.Name}, {ID: onto.ID, Name: onto.Name}},
			Kind:            types.KindNearMiss,
			DistToEndpoint:  dist,
			EndpointTrailID: from.ID,
		})
	}
	return out
}

// endpointDistance returns the distance in meters from p to the nearest
// endpoint of t.
func (d *Detector) endpointDistance(p types.Point, t *types.Trail) float64 {
	return math.Min(geometry.Haversine(p, t.Start()), geometry.Haversine(p, t.End()))
}
