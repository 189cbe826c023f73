// Package discovery implements the loop and route discovery engine: it
// searches the routing graph for single-edge, point-to-point, circuit, and
// lollipop routes matching a target distance and elevation-gain band, under
// explicit enumeration budgets and a context deadline.
package discovery

import (
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// nodePair is an unordered node id pair keying parallel edges.
type nodePair struct{ a, b int64 }

func pairOf(u, v int64) nodePair {
	if u > v {
		u, v = v, u
	}
	return nodePair{u, v}
}

// searchGraph adapts the routing network to the graph-algorithms library.
// The underlying simple graph keeps one (the cheapest) edge per node pair;
// parallel alternatives stay reachable through byPair for the loop pass.
type searchGraph struct {
	und    *simple.WeightedUndirectedGraph
	byPair map[nodePair][]*types.Edge
	nodes  map[int64]*types.Node
}

// newSearchGraph builds a weighted undirected search graph. Edges longer
// than maxEdgeMeters are excluded when maxEdgeMeters is positive. penalty
// multiplies the weight of edges whose IDs appear in penalized, which the
// lollipop pass uses to steer the return leg onto unused edges.
func newSearchGraph(nodes map[int64]*types.Node, edges map[int64]*types.Edge, maxEdgeMeters float64, penalized map[int64]bool, penalty float64) *searchGraph {
	sg := &searchGraph{
		und:    simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		byPair: make(map[nodePair][]*types.Edge),
		nodes:  nodes,
	}
	for _, e := range edges {
		if maxEdgeMeters > 0 && e.LengthMeters() > maxEdgeMeters {
			continue
		}
		if _, ok := nodes[e.Source]; !ok {
			continue
		}
		if _, ok := nodes[e.Target]; !ok {
			continue
		}
		p := pairOf(e.Source, e.Target)
		sg.byPair[p] = append(sg.byPair[p], e)

		w := e.LengthMeters()
		if penalized != nil && penalized[e.ID] {
			w *= penalty
		}
		u := simple.Node(e.Source)
		v := simple.Node(e.Target)
		if existing := sg.und.WeightedEdge(e.Source, e.Target); existing == nil || existing.Weight() > w {
			sg.und.SetWeightedEdge(simple.WeightedEdge{F: u, T: v, W: w})
		}
	}
	return sg
}

// cheapestEdge returns the shortest stored edge between two adjacent nodes.
func (sg *searchGraph) cheapestEdge(u, v int64) *types.Edge {
	var best *types.Edge
	for _, e := range sg.byPair[pairOf(u, v)] {
		if best == nil || e.LengthKm < best.LengthKm {
			best = e
		}
	}
	return best
}

// pathEdges maps a node path from the graph library back to routing edges,
// choosing the cheapest edge for each hop. Returns nil if any hop has no
// edge (stale path against a filtered graph).
func (sg *searchGraph) pathEdges(path []graph.Node) []*types.Edge {
	if len(path) < 2 {
		return nil
	}
	out := make([]*types.Edge, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		e := sg.cheapestEdge(path[i-1].ID(), path[i].ID())
		if e == nil {
			return nil
		}
		out = append(out, e)
	}
	return out
}
