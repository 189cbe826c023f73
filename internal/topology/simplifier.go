package topology

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Simplifier reclassifies nodes by degree with optional external overrides,
// merges degree-2 connectors, and flags junctions whose incident edges
// still structurally overlap for a follow-up split pass.
type Simplifier struct {
	cfg types.Config
	log *slog.Logger
}

// NewSimplifier creates a network simplifier.
func NewSimplifier(cfg types.Config, log *slog.Logger) *Simplifier {
	if log == nil {
		log = slog.Default()
	}
	return &Simplifier{cfg: cfg, log: log}
}

// Simplify classifies every node, applies authoritative overrides, merges
// connector nodes, and returns positions of junctions that need another
// split pass. Merges are applied before any junction flags, so a node is
// never both merged and flagged in one pass.
func (s *Simplifier) Simplify(net *Network, overrides map[int64]types.Prediction) ([]types.Point, *types.Diagnostics, error) {
	diag := &types.Diagnostics{}

	s.classify(net, overrides, diag)
	s.mergeConnectors(net, diag)
	forced := s.flagJunctions(net)

	net.Repair(diag)
	if err := net.Validate(); err != nil {
		return nil, diag, err
	}

	s.log.Debug("network simplified",
		"nodes", len(net.Nodes), "edges", len(net.Edges),
		"merged", diag.NodesMerged, "forced_splits", len(forced))
	return forced, diag, nil
}

// classify assigns kinds by degree, then applies external predictions.
// Confidence 1.0 overrides the degree kind; lower confidences are recorded
// and ignored, since degree classification is never ambiguous today.
func (s *Simplifier) classify(net *Network, overrides map[int64]types.Prediction, diag *types.Diagnostics) {
	deg := net.Degrees()
	for id, n := range net.Nodes {
		switch {
		case deg[id] <= 1:
			n.Kind = types.NodeEndpoint
		case deg[id] == 2:
			n.Kind = types.NodeConnector
		default:
			n.Kind = types.NodeJunction
		}
	}

	for id, pred := range overrides {
		n, ok := net.Nodes[id]
		if !ok {
			continue
		}
		if !types.ValidNodeKind(pred.Kind) {
			diag.Warn(types.ErrOrphanedTopology, "simplifier", fmt.Sprintf("node %d", id),
				"unknown predicted kind "+pred.Kind+", ignored")
			continue
		}
		if pred.Confidence >= 1.0 {
			n.Kind = pred.Kind
		}
	}
}

// mergeConnectors repeatedly replaces connector nodes and their two edges
// with a single edge joining the two neighbors, until no connector remains
// mergeable. Connector chains collapse to one edge.
func (s *Simplifier) mergeConnectors(net *Network, diag *types.Diagnostics) {
	warned := make(map[int64]bool)
	for {
		merged := false
		for id, n := range net.Nodes {
			if n.Kind != types.NodeConnector {
				continue
			}
			incident := net.IncidentEdges(id)
			if len(incident) != 2 {
				// An override promoted or demoted this node; degree rules
				// no longer apply to it.
				continue
			}
			e1, e2 := incident[0], incident[1]
			n1 := e1.Other(id)
			n2 := e2.Other(id)
			if n1 == n2 || n1 == id || n2 == id {
				// Merging would mint a self-loop; leave the pair in place.
				if !warned[id] {
					warned[id] = true
					diag.Warn(types.ErrOrphanedTopology, "simplifier", fmt.Sprintf("node %d", id),
						"connector closes a loop, left unmerged")
				}
				continue
			}

			m := joinEdges(e1, e2, id, n1, n2, s.cfg.NodeTolerance)
			delete(net.Edges, e1.ID)
			delete(net.Edges, e2.ID)
			delete(net.Nodes, id)
			net.AddEdge(m)
			diag.NodesMerged++
			merged = true
			break // maps were mutated; restart the scan
		}
		if !merged {
			return
		}
	}
}

// joinEdges concatenates e1 and e2 across the shared connector node,
// oriented n1 -> via -> n2. Reversed constituents swap gain and loss.
func joinEdges(e1, e2 *types.Edge, via, n1, n2 int64, tol float64) types.Edge {
	g1, gain1, loss1 := orient(e1, n1)
	g2, gain2, loss2 := orient(e2, via)

	geom := make([]types.Point, 0, len(g1)+len(g2))
	geom = append(geom, g1...)
	// Skip the duplicated via point. Endpoint vertices clustered to the
	// same node can differ within the node tolerance, so compare by
	// distance, not equality.
	if len(g2) > 0 && len(geom) > 0 && geometry.Haversine(geom[len(geom)-1], g2[0]) <= tol {
		g2 = g2[1:]
	}
	geom = append(geom, g2...)

	name := e1.TrailName
	if e2.TrailName != name {
		name = name + " / " + e2.TrailName
	}
	return types.Edge{
		Source:        n1,
		Target:        n2,
		TrailID:       e1.TrailID,
		TrailName:     name,
		LengthKm:      e1.LengthKm + e2.LengthKm,
		ElevationGain: gain1 + gain2,
		ElevationLoss: loss1 + loss2,
		Geom:          geom,
	}
}

// orient returns the edge geometry and gain/loss as traversed starting from
// the given node.
func orient(e *types.Edge, from int64) ([]types.Point, float64, float64) {
	if e.Source == from {
		return e.Geom, e.ElevationGain, e.ElevationLoss
	}
	rev := make([]types.Point, len(e.Geom))
	for i, p := range e.Geom {
		rev[len(rev)-1-i] = p
	}
	return rev, e.ElevationLoss, e.ElevationGain
}

// flagJunctions returns the positions of junction nodes where two incident
// edges leave along the same corridor, a sign the upstream splitter
// under-split within tolerance. Each position becomes a forced split point
// for a follow-up pass.
func (s *Simplifier) flagJunctions(net *Network) []types.Point {
	var forced []types.Point
	for id, n := range net.Nodes {
		if n.Kind != types.NodeJunction {
			continue
		}
		incident := net.IncidentEdges(id)
		departures := make([]types.Point, 0, len(incident))
		for _, e := range incident {
			geom, _, _ := orient(e, id)
			if len(geom) > 1 {
				departures = append(departures, geom[1])
			}
		}
		overlapping := false
		for i := 0; i < len(departures) && !overlapping; i++ {
			for j := i + 1; j < len(departures); j++ {
				if geometry.Haversine(departures[i], departures[j]) <= s.cfg.NodeTolerance {
					overlapping = true
					break
				}
			}
		}
		if overlapping {
			forced = append(forced, n.Point)
		}
	}
	return forced
}
