package topology

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// Builder converts a converged trail set into routing nodes and edges.
// Trail endpoints within the node tolerance cluster to a single node via a
// grid snap, so clustering stays near-linear in trail count.
type Builder struct {
	cfg types.Config
	log *slog.Logger
}

// NewBuilder creates a routing graph builder.
func NewBuilder(cfg types.Config, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{cfg: cfg, log: log}
}

// cell is a snap-grid index. The grid pitch equals the node tolerance, so
// any two points within tolerance land in the same or an adjacent cell.
type cell struct{ x, y int64 }

// grid clusters points into nodes. Lookup scans the 3x3 cell neighborhood
// and verifies candidates with a real distance check; clustering decisions
// are order-dependent, so inserts are serialized by the builder.
type grid struct {
	tol   float64
	mLat  float64
	mLon  float64
	cells map[cell][]int64
	net   *Network
}

func (b *Builder) newGrid(net *Network, anchorLat float64) *grid {
	mLat := 6371000.0 * math.Pi / 180
	mLon := mLat * math.Cos(anchorLat*math.Pi/180)
	if mLon < 1 {
		mLon = 1
	}
	return &grid{
		tol:   b.cfg.NodeTolerance,
		mLat:  mLat,
		mLon:  mLon,
		cells: make(map[cell][]int64),
		net:   net,
	}
}

func (g *grid) cellOf(p types.Point) cell {
	return cell{
		x: int64(math.Floor(p.Lon * g.mLon / g.tol)),
		y: int64(math.Floor(p.Lat * g.mLat / g.tol)),
	}
}

// nodeFor returns the existing node within tolerance of p, or inserts a new
// one.
func (g *grid) nodeFor(p types.Point) int64 {
	c := g.cellOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range g.cells[cell{c.x + dx, c.y + dy}] {
				if geometry.Haversine(g.net.Nodes[id].Point, p) <= g.tol {
					return id
				}
			}
		}
	}
	id := g.net.AddNode(p)
	g.cells[c] = append(g.cells[c], id)
	return id
}

// Build populates the network's nodes and edges from its trail set. Edges
// whose endpoints cluster to the same node are dropped; nodes left with no
// incident edges are removed afterward.
func (b *Builder) Build(net *Network) (*types.Diagnostics, error) {
	diag := &types.Diagnostics{}
	if len(net.Trails) == 0 {
		return diag, types.ErrNoTrails
	}

	g := b.newGrid(net, net.Trails[0].Start().Lat)

	for _, t := range net.Trails {
		if err := t.Validate(); err != nil {
			diag.Warn(types.ErrGeometry, "builder", t.ID, err.Error())
			diag.TrailsRejected++
			continue
		}

		src := g.nodeFor(t.Start())
		dst := g.nodeFor(t.End())
		if src == dst {
			diag.Warn(types.ErrOrphanedTopology, "builder", t.ID,
				fmt.Sprintf("both endpoints cluster to node %d, edge dropped", src))
			diag.EdgesDropped++
			continue
		}

		net.AddEdge(types.Edge{
			Source:        src,
			Target:        dst,
			TrailID:       t.ID,
			TrailName:     t.Name,
			LengthKm:      t.LengthKm,
			ElevationGain: t.ElevationGain,
			ElevationLoss: t.ElevationLoss,
			Geom:          t.Geom,
		})
		addTrailName(net.Nodes[src], t.Name)
		addTrailName(net.Nodes[dst], t.Name)
	}

	net.Repair(diag)
	if len(net.Edges) == 0 {
		return diag, types.ErrEmptyGraph
	}

	// Initial kinds by degree; the simplifier refines these.
	for id, deg := range net.Degrees() {
		if deg == 1 {
			net.Nodes[id].Kind = types.NodeEndpoint
		} else {
			net.Nodes[id].Kind = types.NodeIntersection
		}
	}

	b.log.Debug("routing graph built", "nodes", len(net.Nodes), "edges", len(net.Edges))
	return diag, nil
}

// addTrailName inserts name into the node's sorted, deduplicated name set.
func addTrailName(n *types.Node, name string) {
	i := sort.SearchStrings(n.TrailNames, name)
	if i < len(n.TrailNames) && n.TrailNames[i] == name {
		return
	}
	n.TrailNames = append(n.TrailNames, "")
	copy(n.TrailNames[i+1:], n.TrailNames[i:])
	n.TrailNames[i] = name
}
