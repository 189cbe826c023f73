// Package pipeline orchestrates one region build: splitting trails at
// intersections, constructing and simplifying the routing graph, and running
// route discovery. The pipeline owns stage sequencing and diagnostics
// aggregation; the stages own their algorithms.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/carthorse/internal/classifier"
	"github.com/mesh-intelligence/carthorse/internal/discovery"
	"github.com/mesh-intelligence/carthorse/internal/topology"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// maxRebuildPasses bounds the simplify/force-split/rebuild cycle. One
// follow-up pass resolves junction overlaps in practice; the bound keeps a
// pathological network from cycling.
const maxRebuildPasses = 3

// Pipeline runs builds. Safe to reuse across regions; each Run gets its own
// network.
type Pipeline struct {
	cfg       types.Config
	log       *slog.Logger
	predictor classifier.Predictor
}

// Result is the output of one build.
type Result struct {
	Network     *topology.Network
	Routes      []*types.Route
	Diagnostics types.Diagnostics
	Region      string
}

// New creates a pipeline. predictor may be nil, in which case node kinds come
// from graph degree alone.
func New(cfg types.Config, log *slog.Logger, predictor classifier.Predictor) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, log: log, predictor: predictor}
}

// Run executes the full build over the given trails.
func (p *Pipeline) Run(ctx context.Context, trails []types.Trail) (*Result, error) {
	if len(trails) == 0 {
		return nil, types.ErrNoTrails
	}

	res := &Result{Region: firstRegion(trails)}

	working := make([]*types.Trail, len(trails))
	for i := range trails {
		t := trails[i]
		working[i] = &t
	}
	res.Diagnostics.TrailsIn = len(working)

	// Stage 1+2: iterative intersection detection and splitting.
	p.log.Info("splitting trails", "stage", "split", "trails", len(working))
	splitter := topology.NewSplitter(p.cfg, p.log)
	segments, diag, err := splitter.Run(ctx, working)
	res.Diagnostics.Merge(diag)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if len(segments) == 0 {
		return nil, types.ErrAllTrailsFiltered
	}
	p.log.Info("splitting done", "stage", "split",
		"segments", len(segments), "iterations", diag.SplitIterations)

	// Stage 3+4: build the routing graph and simplify it. Simplification can
	// flag junction overlaps that require further splits, in which case the
	// graph is rebuilt from the re-split trails.
	net, err := p.buildAndSimplify(ctx, segments, res)
	if err != nil {
		return nil, err
	}
	res.Network = net

	// Stage 5: route discovery.
	p.log.Info("discovering routes", "stage", "discover",
		"nodes", len(net.Nodes), "edges", len(net.Edges))
	engine := discovery.NewEngine(p.cfg, p.log, net.Nodes, net.Edges)
	routes, diag, err := engine.Discover(ctx)
	res.Diagnostics.Merge(diag)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	res.Routes = routes
	p.log.Info("discovery done", "stage", "discover",
		"routes", len(routes), "candidates", res.Diagnostics.Candidates)

	return res, nil
}

func (p *Pipeline) buildAndSimplify(ctx context.Context, segments []*types.Trail, res *Result) (*topology.Network, error) {
	builder := topology.NewBuilder(p.cfg, p.log)
	simplifier := topology.NewSimplifier(p.cfg, p.log)
	splitter := topology.NewSplitter(p.cfg, p.log)

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		net := topology.NewNetwork(segments)
		p.log.Info("building graph", "stage", "build", "pass", pass, "segments", len(segments))
		diag, err := builder.Build(net)
		res.Diagnostics.Merge(diag)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}

		overrides := classifier.Overrides(p.predictor, nodeIDs(net))
		forced, diag, err := simplifier.Simplify(net, overrides)
		res.Diagnostics.Merge(diag)
		if err != nil {
			return nil, fmt.Errorf("simplify: %w", err)
		}
		p.log.Info("graph simplified", "stage", "simplify", "pass", pass,
			"nodes", len(net.Nodes), "edges", len(net.Edges), "forced_splits", len(forced))

		if len(forced) == 0 || pass >= maxRebuildPasses {
			if len(forced) > 0 {
				res.Diagnostics.Warn(types.ErrConvergenceLimit, "simplify", "",
					fmt.Sprintf("%d junction overlaps unresolved after %d passes", len(forced), pass))
			}
			return net, nil
		}

		var splits int
		var splitDiag types.Diagnostics
		segments, splits = splitter.ForceSplit(net.Trails, forced, &splitDiag)
		res.Diagnostics.Merge(&splitDiag)
		if splits == 0 {
			return net, nil
		}
	}
}

func nodeIDs(net *topology.Network) []int64 {
	ids := make([]int64, 0, len(net.Nodes))
	for id := range net.Nodes {
		ids = append(ids, id)
	}
	return ids
}

func firstRegion(trails []types.Trail) string {
	for _, t := range trails {
		if t.Region != "" {
			return t.Region
		}
	}
	return ""
}
