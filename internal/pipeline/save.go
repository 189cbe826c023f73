package pipeline

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/internal/sqlite"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Save persists a build result into an attached export database: processed
// trails, the routing graph, route recommendations, and the region summary.
func Save(db *sqlite.Backend, res *Result) error {
	if res.Network == nil {
		return types.ErrEmptyGraph
	}

	trails := make([]types.Trail, len(res.Network.Trails))
	var pts []types.Point
	for i, t := range res.Network.Trails {
		trails[i] = *t
		pts = append(pts, t.Geom...)
	}
	if err := db.InsertTrails(trails); err != nil {
		return fmt.Errorf("save trails: %w", err)
	}

	nodes := make([]*types.Node, 0, len(res.Network.Nodes))
	for _, n := range res.Network.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	if err := db.InsertNodes(nodes); err != nil {
		return fmt.Errorf("save nodes: %w", err)
	}

	edges := make([]*types.Edge, 0, len(res.Network.Edges))
	for _, e := range res.Network.Edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	if err := db.InsertEdges(edges); err != nil {
		return fmt.Errorf("save edges: %w", err)
	}

	routes := make([]types.Route, len(res.Routes))
	for i, r := range res.Routes {
		routes[i] = *r
	}
	if err := db.InsertRoutes(routes, res.Network.Edges); err != nil {
		return fmt.Errorf("save routes: %w", err)
	}

	meta := sqlite.RegionMetadata{
		Region:     res.Region,
		TrailCount: len(trails),
		NodeCount:  len(nodes),
		EdgeCount:  len(edges),
		RouteCount: len(routes),
		BBox:       geometry.Bound(pts, 0),
	}
	if meta.Region == "" {
		meta.Region = "default"
	}
	if err := db.UpsertRegionMetadata(meta); err != nil {
		return fmt.Errorf("save region metadata: %w", err)
	}

	return nil
}
