// Package topology implements the trail network topology engine:
// intersection detection and classification, iterative trail splitting,
// routing graph construction, and degree-based network simplification.
//
// A Network is scoped to a single build. Stages run in sequence against it
// and no stage retains a reference across builds.
package topology

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Network is the shared mutable state of one build: the current trail set
// and, once built, the routing graph.
type Network struct {
	Trails []*types.Trail
	Nodes  map[int64]*types.Node
	Edges  map[int64]*types.Edge

	nextNodeID int64
	nextEdgeID int64
}

// NewNetwork creates an empty network around the given trails.
func NewNetwork(trails []*types.Trail) *Network {
	return &Network{
		Trails: trails,
		Nodes:  make(map[int64]*types.Node),
		Edges:  make(map[int64]*types.Edge),
	}
}

// AddNode inserts a node and returns its assigned ID.
func (n *Network) AddNode(p types.Point) int64 {
	n.nextNodeID++
	n.Nodes[n.nextNodeID] = &types.Node{ID: n.nextNodeID, Point: p}
	return n.nextNodeID
}

// AddEdge inserts an edge and returns its assigned ID.
func (n *Network) AddEdge(e types.Edge) int64 {
	n.nextEdgeID++
	e.ID = n.nextEdgeID
	n.Edges[e.ID] = &e
	return e.ID
}

// Degrees returns the number of incident edges per node.
func (n *Network) Degrees() map[int64]int {
	deg := make(map[int64]int, len(n.Nodes))
	for _, e := range n.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// IncidentEdges returns the edges touching the given node.
func (n *Network) IncidentEdges(nodeID int64) []*types.Edge {
	var out []*types.Edge
	for _, e := range n.Edges {
		if e.Source == nodeID || e.Target == nodeID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Repair removes edges whose endpoints no longer exist and nodes with no
// incident edges, recording each removal. It re-validates after removal so
// the returned network is referentially intact.
func (n *Network) Repair(diag *types.Diagnostics) {
	for id, e := range n.Edges {
		if _, ok := n.Nodes[e.Source]; !ok {
			diag.Warn(types.ErrOrphanedTopology, "repair", fmt.Sprintf("edge %d", id), "source node missing, edge removed")
			delete(n.Edges, id)
			continue
		}
		if _, ok := n.Nodes[e.Target]; !ok {
			diag.Warn(types.ErrOrphanedTopology, "repair", fmt.Sprintf("edge %d", id), "target node missing, edge removed")
			delete(n.Edges, id)
		}
	}

	deg := n.Degrees()
	for id := range n.Nodes {
		if deg[id] == 0 {
			diag.Warn(types.ErrOrphanedTopology, "repair", fmt.Sprintf("node %d", id), "no incident edges, node removed")
			delete(n.Nodes, id)
			diag.NodesRemoved++
		}
	}
}

// Validate checks referential integrity: every edge's endpoints exist, no
// edge is a self-loop, and no node is isolated. Returns the first violation
// found, or nil.
func (n *Network) Validate() error {
	deg := n.Degrees()
	for id, e := range n.Edges {
		if e.Source == e.Target {
			return fmt.Errorf("edge %d: %w: self-loop at node %d", id, types.ErrOrphanedTopology, e.Source)
		}
		if _, ok := n.Nodes[e.Source]; !ok {
			return fmt.Errorf("edge %d: %w: missing source %d", id, types.ErrOrphanedTopology, e.Source)
		}
		if _, ok := n.Nodes[e.Target]; !ok {
			return fmt.Errorf("edge %d: %w: missing target %d", id, types.ErrOrphanedTopology, e.Target)
		}
	}
	for id := range n.Nodes {
		if deg[id] == 0 {
			return fmt.Errorf("node %d: %w: isolated node", id, types.ErrOrphanedTopology)
		}
	}
	return nil
}

// newTrailID generates a UUID v7 for trails produced by splitting, falling
// back to v4 if v7 generation fails.
func newTrailID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// recalcStats refreshes a trail's derived length and elevation fields from
// its geometry.
func recalcStats(t *types.Trail) {
	t.LengthKm = geometry.LengthMeters(t.Geom) / 1000
	gain, loss, min, max, avg := geometry.ElevationStats(t.Geom)
	t.ElevationGain = gain
	t.ElevationLoss = loss
	t.MinElevation = min
	t.MaxElevation = max
	t.AvgElevation = avg
}
