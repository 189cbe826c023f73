package discovery

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// returnPenalty multiplies the weight of outbound edges when searching the
// return leg, steering it onto unused trail.
const returnPenalty = 5.0

// lollipopPass builds out-and-back routes with a loop at the far end: an
// outbound shortest path to a candidate destination, then a return path
// computed on a graph where the outbound edges are penalized. A candidate
// is accepted when the total distance matches the band and the fraction of
// repeated traversals stays under the overlap ceiling.
func (e *Engine) lollipopPass(ctx context.Context, sg *searchGraph, anchors []int64, b band, col *collector) {
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

			for _, dest := range e.lollipopDestinations(sg, tree, anchor, b) {
				if gctx.Err() != nil || !col.spend() {
					return nil
				}
				outNodes, _ := tree.To(dest)
				outEdges := sg.pathEdges(outNodes)
				if outEdges == nil {
					continue
				}
				outWalk := orientWalk(outEdges, anchor)

				// Return leg on a graph that penalizes the outbound edges.
				used := make(map[int64]bool, len(outEdges))
				for _, edge := range outEdges {
					used[edge.ID] = true
				}
				penalized := newSearchGraph(e.nodes, e.edges, 0, used, returnPenalty)
				from := penalized.und.Node(dest)
				if from == nil {
					continue
				}
				back := path.DijkstraFrom(from, penalized.und)
				backNodes, _ := back.To(anchor)
				backEdges := penalized.pathEdges(backNodes)
				if backEdges == nil {
					continue
				}
				backWalk := orientWalk(backEdges, dest)

				walk := append(append([]traversal{}, outWalk...), backWalk...)
				r := assemble(e.cfg, types.ShapeLollipop, walk)
				if !b.contains(r.LengthKm*1000) || !e.gainAccepted(r.ElevationGain) {
					continue
				}
				if r.Overlap > e.cfg.MaxOverlapFraction {
					continue // too much retraced trail; try the next candidate
				}
				col.add(r)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// lollipopDestinations picks far-end candidates: nodes whose shortest
// distance is between a third and a half of the target, so the loop at the
// far end has room inside the band.
func (e *Engine) lollipopDestinations(sg *searchGraph, tree path.Shortest, anchor int64, b band) []int64 {
	lo := b.lo / 3
	hi := b.hi / 2

	var dests []int64
	it := sg.und.Nodes()
	for it.Next() {
		id := it.Node().ID()
		if id == anchor {
			continue
		}
		d := tree.WeightTo(id)
		if d >= lo && d <= hi {
			dests = append(dests, id)
		}
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })
	if len(dests) > e.cfg.MaxDestinations {
		dests = dests[:e.cfg.MaxDestinations]
	}
	return dests
}
