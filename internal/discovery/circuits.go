package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// maxCircuitExpansions caps DFS node expansions per circuit pass so a dense
// subgraph cannot pin the search even when no context deadline is set.
const maxCircuitExpansions = 1 << 20

// circuitPass enumerates elementary circuits on a cost-filtered subgraph.
// Edges longer than half the band ceiling cannot be part of a valid circuit
// and are excluded up front; if the filtered subgraph still exceeds the
// circuit edge budget, only the shortest edges are kept and a budget
// warning is recorded.
func (e *Engine) circuitPass(ctx context.Context, full *searchGraph, b band, col *collector, diag *types.Diagnostics) {
	maxEdge := b.hi / 2

	kept := make(map[int64]*types.Edge, len(e.edges))
	for id, edge := range e.edges {
		if edge.LengthMeters() <= maxEdge {
			kept[id] = edge
		}
	}
	if len(kept) > e.cfg.MaxCircuitEdges {
		diag.Warn(types.ErrSearchBudget, "discovery", "",
			fmt.Sprintf("circuit subgraph has %d edges, keeping shortest %d", len(kept), e.cfg.MaxCircuitEdges))
		ids := make([]int64, 0, len(kept))
		for id := range kept {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if kept[ids[i]].LengthKm != kept[ids[j]].LengthKm {
				return kept[ids[i]].LengthKm < kept[ids[j]].LengthKm
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids[e.cfg.MaxCircuitEdges:] {
			delete(kept, id)
		}
	}

	// Loops formed by a pair of parallel edges between the same two nodes
	// are invisible to the simple search graph; enumerate them directly.
	e.parallelPairLoops(kept, b, col)

	sub := newSearchGraph(e.nodes, kept, 0, nil, 1)
	if sub.und.Nodes().Len() == 0 {
		return
	}

	cs := newCircuitSearch(ctx, e, sub, b, col)
	cs.run()
	if cs.exhausted {
		diag.Warn(types.ErrSearchBudget, "discovery", "",
			"circuit expansion budget exhausted, keeping circuits found so far")
	}
}

// circuitSearch enumerates elementary circuits of an undirected subgraph
// with a rooted DFS: every circuit is discovered at its smallest node id,
// and branches are pruned once the accumulated length exceeds the band
// ceiling. The context and the candidate budget are checked on every
// expansion, so the pass hands back whatever it has found the moment either
// runs out.
type circuitSearch struct {
	ctx context.Context
	eng *Engine
	sg  *searchGraph
	b   band
	col *collector

	adj    map[int64][]int64
	onPath map[int64]bool
	path   []int64
	length float64
	seen   map[string]bool

	steps     int
	stopped   bool
	exhausted bool
}

func newCircuitSearch(ctx context.Context, eng *Engine, sg *searchGraph, b band, col *collector) *circuitSearch {
	adj := make(map[int64][]int64)
	it := sg.und.Nodes()
	for it.Next() {
		v := it.Node().ID()
		nit := sg.und.From(v)
		for nit.Next() {
			adj[v] = append(adj[v], nit.Node().ID())
		}
		sort.Slice(adj[v], func(i, j int) bool { return adj[v][i] < adj[v][j] })
	}
	return &circuitSearch{
		ctx:    ctx,
		eng:    eng,
		sg:     sg,
		b:      b,
		col:    col,
		adj:    adj,
		onPath: make(map[int64]bool),
		seen:   make(map[string]bool),
	}
}

func (c *circuitSearch) run() {
	roots := make([]int64, 0, len(c.adj))
	for id := range c.adj {
		roots = append(roots, id)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	for _, root := range roots {
		if c.stopped {
			return
		}
		c.path = append(c.path[:0], root)
		c.onPath[root] = true
		c.length = 0
		c.extend(root, root)
		delete(c.onPath, root)
	}
}

// extend grows the current path from v, emitting a circuit whenever an edge
// back to the root closes one. Only node ids above the root are visited, so
// each circuit is found exactly once per direction.
func (c *circuitSearch) extend(v, root int64) {
	c.steps++
	if c.steps > maxCircuitExpansions {
		c.stopped = true
		c.exhausted = true
		return
	}
	if c.ctx.Err() != nil {
		c.stopped = true
		return
	}

	for _, w := range c.adj[v] {
		if c.stopped {
			return
		}
		hop := c.sg.cheapestEdge(v, w)
		if hop == nil {
			continue
		}
		hopLen := hop.LengthMeters()
		switch {
		case w == root && len(c.path) >= 3:
			c.emit(hopLen)
		case w > root && !c.onPath[w] && c.length+hopLen <= c.b.hi:
			c.onPath[w] = true
			c.path = append(c.path, w)
			c.length += hopLen
			c.extend(w, root)
			c.length -= hopLen
			c.path = c.path[:len(c.path)-1]
			delete(c.onPath, w)
		}
	}
}

// emit assembles the circuit currently on the path plus the closing hop
// back to the root. The two traversal directions of one circuit both reach
// here; the second-versus-last node comparison keeps exactly one.
func (c *circuitSearch) emit(closingLen float64) {
	if c.path[1] > c.path[len(c.path)-1] {
		return
	}
	key := canonicalCycle(c.path)
	if c.seen[key] {
		return
	}
	c.seen[key] = true

	if !c.col.spend() {
		c.stopped = true
		return
	}
	if !c.b.contains(c.length + closingLen) {
		return
	}

	edges := make([]*types.Edge, 0, len(c.path))
	for i := 1; i < len(c.path); i++ {
		e := c.sg.cheapestEdge(c.path[i-1], c.path[i])
		if e == nil {
			return
		}
		edges = append(edges, e)
	}
	closing := c.sg.cheapestEdge(c.path[len(c.path)-1], c.path[0])
	if closing == nil {
		return
	}
	edges = append(edges, closing)

	walk := orientWalk(edges, c.path[0])
	r := assemble(c.eng.cfg, types.ShapeLoop, walk)
	if c.b.contains(r.LengthKm*1000) && c.eng.gainAccepted(r.ElevationGain) {
		c.col.add(r)
	}
}

// parallelPairLoops finds two-edge loops: distinct trails joining the same
// node pair, out one and back the other.
func (e *Engine) parallelPairLoops(kept map[int64]*types.Edge, b band, col *collector) {
	byPair := make(map[nodePair][]*types.Edge)
	for _, edge := range kept {
		p := pairOf(edge.Source, edge.Target)
		byPair[p] = append(byPair[p], edge)
	}
	for _, edges := range byPair {
		if len(edges) < 2 {
			continue
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
		for i := 0; i < len(edges); i++ {
			for j := i + 1; j < len(edges); j++ {
				if !col.spend() {
					return
				}
				out, back := edges[i], edges[j]
				total := out.LengthMeters() + back.LengthMeters()
				gain := out.ElevationGain + back.ElevationLoss
				if !b.contains(total) || !e.gainAccepted(gain) {
					continue
				}
				col.add(assemble(e.cfg, types.ShapeLoop, []traversal{
					{edge: out}, {edge: back, reverse: true},
				}))
			}
		}
	}
}

// canonicalCycle normalizes a node-id cycle so rotations and reflections of
// the same circuit share one key.
func canonicalCycle(ids []int64) string {
	n := len(ids)
	if n == 0 {
		return ""
	}

	best := ""
	render := func(seq []int64) string {
		var sb strings.Builder
		for _, id := range seq {
			fmt.Fprintf(&sb, "%d,", id)
		}
		return sb.String()
	}
	for start := 0; start < n; start++ {
		fwd := make([]int64, 0, n)
		rev := make([]int64, 0, n)
		for k := 0; k < n; k++ {
			fwd = append(fwd, ids[(start+k)%n])
			rev = append(rev, ids[(start-k+n*2)%n])
		}
		for _, cand := range []string{render(fwd), render(rev)} {
			if best == "" || cand < best {
				best = cand
			}
		}
	}
	return best
}
