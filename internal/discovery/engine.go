package discovery

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Engine searches the routing graph for route recommendations. Searches are
// bounded by the configured budgets and the context deadline; on exhaustion
// the engine returns the best results found so far instead of erroring.
type Engine struct {
	cfg   types.Config
	log   *slog.Logger
	nodes map[int64]*types.Node
	edges map[int64]*types.Edge
}

// NewEngine creates a discovery engine over a simplified routing graph.
func NewEngine(cfg types.Config, log *slog.Logger, nodes map[int64]*types.Node, edges map[int64]*types.Edge) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, log: log, nodes: nodes, edges: edges}
}

// collector gathers candidate routes from parallel searches, deduplicating
// by edge-multiset signature and enforcing the global enumeration budget.
type collector struct {
	mu        sync.Mutex
	bySig     map[string]*types.Route
	visited   int
	budget    int
	exhausted bool
}

// spend consumes one budget unit. It returns false once the budget is gone;
// callers stop enumerating and keep what they have.
func (c *collector) spend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visited >= c.budget {
		c.exhausted = true
		return false
	}
	c.visited++
	return true
}

// add keeps the higher-scoring route per signature.
func (c *collector) add(r *types.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := signature(r)
	if prev, ok := c.bySig[sig]; ok && prev.Score >= r.Score {
		return
	}
	c.bySig[sig] = r
}

// Discover returns up to MaxRoutes recommendations matching the configured
// target distance and elevation band, in decreasing score order. Passes run
// in increasing cost order: single edges, point-to-point, circuits,
// lollipops.
func (e *Engine) Discover(ctx context.Context) ([]*types.Route, *types.Diagnostics, error) {
	diag := &types.Diagnostics{}
	if len(e.edges) == 0 {
		return nil, diag, types.ErrEmptyGraph
	}

	b := targetBand(e.cfg)
	col := &collector{bySig: make(map[string]*types.Route), budget: e.cfg.MaxCandidates}
	sg := newSearchGraph(e.nodes, e.edges, 0, nil, 1)
	anchors := e.pickAnchors()

	e.singleEdgePass(b, col)
	e.pointToPointPass(ctx, sg, anchors, b, col)
	e.circuitPass(ctx, sg, b, col, diag)
	e.lollipopPass(ctx, sg, anchors, b, col)

	if col.exhausted || ctx.Err() != nil {
		detail := "enumeration budget exhausted, returning partial results"
		if ctx.Err() != nil {
			detail = "deadline reached, returning partial results"
		}
		diag.Warn(types.ErrSearchBudget, "discovery", "", detail)
	}
	diag.Candidates = col.visited

	routes := make([]*types.Route, 0, len(col.bySig))
	for _, r := range col.bySig {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Score != routes[j].Score {
			return routes[i].Score > routes[j].Score
		}
		return routes[i].LengthKm < routes[j].LengthKm
	})
	if len(routes) > e.cfg.MaxRoutes {
		routes = routes[:e.cfg.MaxRoutes]
	}

	e.log.Debug("route discovery finished",
		"candidates", col.visited, "kept", len(routes), "anchors", len(anchors))
	return routes, diag, nil
}

// pickAnchors selects strategic search origins: degree-1 endpoints and
// high-degree junctions, never every node. Junctions are preferred in
// decreasing degree order; the list is capped at MaxAnchors.
func (e *Engine) pickAnchors() []int64 {
	deg := make(map[int64]int, len(e.nodes))
	for _, edge := range e.edges {
		deg[edge.Source]++
		deg[edge.Target]++
	}

	var anchors []int64
	for id, d := range deg {
		if d == 1 || d >= 3 {
			anchors = append(anchors, id)
		}
	}
	sort.Slice(anchors, func(i, j int) bool {
		if deg[anchors[i]] != deg[anchors[j]] {
			return deg[anchors[i]] > deg[anchors[j]]
		}
		return anchors[i] < anchors[j]
	})
	if len(anchors) > e.cfg.MaxAnchors {
		anchors = anchors[:e.cfg.MaxAnchors]
	}
	return anchors
}

// gainAccepted applies the elevation-gain tolerance to a candidate. A zero
// elevation target accepts any gain.
func (e *Engine) gainAccepted(gain float64) bool {
	if e.cfg.TargetElevationM <= 0 {
		return true
	}
	slack := e.cfg.TargetElevationM * e.cfg.TolerancePercent / 100
	return math.Abs(gain-e.cfg.TargetElevationM) <= slack
}

// singleEdgePass trivially accepts edges whose length (or out-and-back
// doubling) already matches the target band.
func (e *Engine) singleEdgePass(b band, col *collector) {
	for _, edge := range e.edges {
		if !col.spend() {
			return
		}
		if b.contains(edge.LengthMeters()) && e.gainAccepted(edge.ElevationGain) {
			col.add(assemble(e.cfg, types.ShapePointToPoint, []traversal{{edge: edge}}))
		}
		oabGain := edge.ElevationGain + edge.ElevationLoss
		if b.contains(2*edge.LengthMeters()) && e.gainAccepted(oabGain) {
			col.add(assemble(e.cfg, types.ShapeOutAndBack, []traversal{
				{edge: edge}, {edge: edge, reverse: true},
			}))
		}
	}
}

// pointToPointPass runs k-shortest-paths from each anchor to a bounded set
// of destinations whose shortest distance already falls inside the band.
// Anchor searches are independent and run in parallel; the collector
// serializes merges.
func (e *Engine) pointToPointPass(ctx context.Context, sg *searchGraph, anchors []int64, b band, col *collector) {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, anchor := range anchors {
		anchor := anchor
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			src := sg.und.Node(anchor)
			if src == nil {
				return nil
			}
			tree := path.DijkstraFrom(src, sg.und)

			dests := e.destinationsInBand(sg, tree, anchor, b)
			for _, dest := range dests {
				if gctx.Err() != nil || !col.spend() {
					return nil
				}
				paths := path.YenKShortestPaths(sg.und, e.cfg.MaxPathsPerPair, b.hi, src, sg.und.Node(dest))
				for _, nodePath := range paths {
					edges := sg.pathEdges(nodePath)
					if edges == nil {
						continue
					}
					walk := orientWalk(edges, anchor)
					r := assemble(e.cfg, types.ShapePointToPoint, walk)
					if b.contains(r.LengthKm*1000) && e.gainAccepted(r.ElevationGain) {
						col.add(r)
					}

					// The same leg ridden out and back.
					oab := assemble(e.cfg, types.ShapeOutAndBack, appendReturn(walk))
					if b.contains(oab.LengthKm*1000) && e.gainAccepted(oab.ElevationGain) {
						col.add(oab)
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// destinationsInBand returns up to MaxDestinations nodes whose shortest
// distance from the anchor lies in the distance envelope, nearest to the
// target first. Half-band distances are included for out-and-back legs.
func (e *Engine) destinationsInBand(sg *searchGraph, tree path.Shortest, anchor int64, b band) []int64 {
	target := e.cfg.TargetDistanceKm * 1000
	var dests []int64
	dist := make(map[int64]float64)

	it := sg.und.Nodes()
	for it.Next() {
		id := it.Node().ID()
		if id == anchor {
			continue
		}
		d := tree.WeightTo(id)
		if math.IsInf(d, 1) {
			continue
		}
		if b.contains(d) || b.contains(2*d) {
			dests = append(dests, id)
			dist[id] = d
		}
	}
	sort.Slice(dests, func(i, j int) bool {
		di := math.Abs(dist[dests[i]] - target)
		dj := math.Abs(dist[dests[j]] - target)
		if di != dj {
			return di < dj
		}
		return dests[i] < dests[j]
	})
	if len(dests) > e.cfg.MaxDestinations {
		dests = dests[:e.cfg.MaxDestinations]
	}
	return dests
}

// orientWalk fixes traversal directions along an edge sequence starting at
// the given node.
func orientWalk(edges []*types.Edge, start int64) []traversal {
	walk := make([]traversal, len(edges))
	at := start
	for i, edge := range edges {
		walk[i] = traversal{edge: edge, reverse: edge.Source != at}
		at = edge.Other(at)
	}
	return walk
}

// appendReturn doubles a walk into an out-and-back traversal.
func appendReturn(walk []traversal) []traversal {
	out := make([]traversal, 0, 2*len(walk))
	out = append(out, walk...)
	for i := len(walk) - 1; i >= 0; i-- {
		out = append(out, traversal{edge: walk[i].edge, reverse: !walk[i].reverse})
	}
	return out
}
