package topology

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Splitter cuts trails at classified intersection points until the network
// is closed: every intersection occurs only at shared endpoints. The
// detect/split loop is bounded by MaxSplitIterations to guard against
// oscillation from numerical noise.
type Splitter struct {
	cfg      types.Config
	log      *slog.Logger
	detector *Detector
}

// NewSplitter creates a splitter sharing the detector's tolerances.
func NewSplitter(cfg types.Config, log *slog.Logger) *Splitter {
	if log == nil {
		log = slog.Default()
	}
	return &Splitter{cfg: cfg, log: log, detector: NewDetector(cfg, log)}
}

// Run iterates detection and splitting until a pass produces zero new
// splits or the iteration cap is reached. On cap exhaustion the current
// best-effort trail set is returned with a convergence warning, not an
// error.
func (s *Splitter) Run(ctx context.Context, trails []*types.Trail) ([]*types.Trail, *types.Diagnostics, error) {
	diag := &types.Diagnostics{}
	current := trails

	for iter := 1; ; iter++ {
		points, dd, err := s.detector.Detect(ctx, current)
		diag.Merge(dd)
		if err != nil {
			return current, diag, err
		}

		next, splits := s.applyPoints(current, points, diag)
		diag.SplitIterations = iter
		current = next

		if splits == 0 {
			s.log.Debug("splitter converged", "iterations", iter, "trails", len(current))
			return current, diag, nil
		}
		s.log.Debug("split pass", "iteration", iter, "splits", splits, "trails", len(current))

		if iter >= s.cfg.MaxSplitIterations {
			diag.Warn(types.ErrConvergenceLimit, "splitter", "",
				fmt.Sprintf("still splitting after %d iterations, emitting best-effort network", iter))
			return current, diag, nil
		}
	}
}

// ForceSplit cuts any trail whose interior passes within the node tolerance
// of one of the given positions. Used by the simplifier to request junction
// splits as a follow-up pass.
func (s *Splitter) ForceSplit(trails []*types.Trail, positions []types.Point, diag *types.Diagnostics) ([]*types.Trail, int) {
	var points []types.IntersectionPoint
	for _, p := range positions {
		for _, t := range trails {
			snapped, dist, _ := geometry.ClosestPoint(t.Geom, p)
			if dist > s.cfg.NodeTolerance {
				continue
			}
			points = append(points, types.IntersectionPoint{
				Point:  snapped,
				Trails: []types.TrailRef{{ID: t.ID, Name: t.Name}},
				Kind:   types.KindXCrossing,
			})
		}
	}
	return s.applyPoints(trails, points, diag)
}

// applyPoints performs one splitting pass: snap near-miss endpoints, locate
// every splittable point along its trails, discard cut positions that would
// create slivers, and cut the survivors. Returns the new trail set and the
// number of trails that were split.
func (s *Splitter) applyPoints(trails []*types.Trail, points []types.IntersectionPoint, diag *types.Diagnostics) ([]*types.Trail, int) {
	byID := make(map[string]*types.Trail, len(trails))
	order := make([]string, 0, len(trails))
	for _, t := range trails {
		byID[t.ID] = t
		order = append(order, t.ID)
	}

	// Near-miss endpoints are snapped onto the passing trail before any
	// ratios are computed, so cuts land on the post-snap geometry.
	for _, ip := range points {
		if ip.Kind != types.KindNearMiss {
			continue
		}
		t, ok := byID[ip.EndpointTrailID]
		if !ok {
			continue
		}
		byID[t.ID] = snapEndpoint(t, ip.Point)
	}

	// Collect cut ratios per trail. A point cuts a trail only where it lies
	// on that trail's line; endpoint-side trails of T intersections fall
	// out naturally when their ratio lands within the sliver margin.
	cuts := make(map[string][]float64)
	for _, ip := range points {
		if !ip.Kind.Splittable() {
			continue
		}
		for _, ref := range ip.Trails {
			if ip.Kind == types.KindNearMiss && ref.ID == ip.EndpointTrailID {
				continue // the terminating trail is snapped, never cut
			}
			t, ok := byID[ref.ID]
			if !ok {
				continue
			}
			_, dist, ratio := geometry.ClosestPoint(t.Geom, ip.Point)
			if dist > s.cfg.IntersectionTolerance {
				continue
			}
			cuts[t.ID] = append(cuts[t.ID], ratio)
		}
	}

	var out []*types.Trail
	split := 0
	for _, id := range order {
		t := byID[id]
		ratios := usableRatios(cuts[id], t, s.cfg.MinSegmentLength)
		if len(ratios) == 0 {
			out = append(out, t)
			continue
		}

		segments := s.cut(t, ratios, diag)
		if len(segments) == 0 {
			// Every segment degenerated; keep the original rather than
			// losing the trail.
			out = append(out, t)
			continue
		}
		out = append(out, segments...)
		split++
	}
	return out, split
}

// usableRatios sorts and filters raw cut ratios: positions within the
// minimum segment length of either end or of each other are discarded to
// avoid creating degenerate slivers.
func usableRatios(raw []float64, t *types.Trail, minSegment float64) []float64 {
	if len(raw) == 0 {
		return nil
	}
	total := geometry.Length2DMeters(t.Geom)
	if total <= 0 {
		return nil
	}
	margin := minSegment / total

	sort.Float64s(raw)
	var out []float64
	for _, r := range raw {
		if r < margin || r > 1-margin {
			continue
		}
		if len(out) > 0 && r-out[len(out)-1] < margin {
			continue
		}
		out = append(out, r)
	}
	return out
}

// cut splits a trail at the given ordered ratios. Each surviving segment
// becomes a new trail derived from the original; segments below the minimum
// length are dropped with a warning.
func (s *Splitter) cut(t *types.Trail, ratios []float64, diag *types.Diagnostics) []*types.Trail {
	bounds := append([]float64{0}, ratios...)
	bounds = append(bounds, 1)

	var segments []*types.Trail
	for i := 0; i < len(bounds)-1; i++ {
		geom := geometry.Substring(t.Geom, bounds[i], bounds[i+1])
		if geom == nil || geometry.LengthMeters(geom) < s.cfg.MinSegmentLength {
			diag.Warn(types.ErrDegenerateSplit, "splitter", t.ID,
				fmt.Sprintf("segment %d below %.1fm minimum, dropped", i, s.cfg.MinSegmentLength))
			diag.SegmentsDropped++
			continue
		}
		seg := &types.Trail{
			ID:          newTrailID(),
			Name:        t.Name,
			Region:      t.Region,
			Geom:        geom,
			DerivedFrom: t.ID,
		}
		recalcStats(seg)
		segments = append(segments, seg)
		diag.SegmentsCreated++
	}
	return segments
}

// snapEndpoint returns a copy of t with whichever endpoint is closer to
// target moved onto it. Stats are refreshed for the new geometry.
func snapEndpoint(t *types.Trail, target types.Point) *types.Trail {
	geom := make([]types.Point, len(t.Geom))
	copy(geom, t.Geom)

	if geometry.Haversine(t.Start(), target) <= geometry.Haversine(t.End(), target) {
		geom[0] = target
	} else {
		geom[len(geom)-1] = target
	}

	snapped := *t
	snapped.Geom = geom
	recalcStats(&snapped)
	return &snapped
}
