package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/carthorse/internal/sqlite"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// crossingTrails is two trails crossing at (-105.29, 39.99): one horizontal
// of about 1.7 km and one vertical of about 2.2 km.
func crossingTrails() []types.Trail {
	return []types.Trail{
		{
			ID: "trail-h", Name: "Mesa Trail", Region: "boulder",
			Geom: []types.Point{
				{Lon: -105.30, Lat: 39.99, Elevation: 1700},
				{Lon: -105.28, Lat: 39.99, Elevation: 1750},
			},
		},
		{
			ID: "trail-v", Name: "Bear Canyon", Region: "boulder",
			Geom: []types.Point{
				{Lon: -105.29, Lat: 39.98, Elevation: 1720},
				{Lon: -105.29, Lat: 40.00, Elevation: 1780},
			},
		},
	}
}

func testConfig() types.Config {
	cfg := types.DefaultConfig()
	cfg.TargetDistanceKm = 2.0
	cfg.TargetElevationM = 0
	cfg.TolerancePercent = 50
	return cfg
}

func TestPipelineRun(t *testing.T) {
	p := New(testConfig(), nil, nil)
	res, err := p.Run(context.Background(), crossingTrails())
	require.NoError(t, err)

	// The crossing splits both trails: 4 segments, 5 nodes, 4 edges.
	require.NotNil(t, res.Network)
	assert.Len(t, res.Network.Trails, 4)
	assert.Len(t, res.Network.Nodes, 5)
	assert.Len(t, res.Network.Edges, 4)
	assert.Equal(t, "boulder", res.Region)

	// The crossing node is a junction, the four tips are endpoints.
	var junctions, endpoints int
	for _, n := range res.Network.Nodes {
		switch n.Kind {
		case types.NodeJunction:
			junctions++
		case types.NodeEndpoint:
			endpoints++
		}
	}
	assert.Equal(t, 1, junctions)
	assert.Equal(t, 4, endpoints)

	// Out-and-backs on the longer arms and leaf-to-leaf walks land in the
	// 2 km +/- 50% band.
	require.NotEmpty(t, res.Routes)
	for _, r := range res.Routes {
		assert.True(t, types.ValidRouteShape(r.Shape))
		assert.GreaterOrEqual(t, r.LengthKm, 1.0)
		assert.LessOrEqual(t, r.LengthKm, 3.0)
	}

	assert.Equal(t, 2, res.Diagnostics.TrailsIn)
	assert.GreaterOrEqual(t, res.Diagnostics.SegmentsCreated, 4)
}

func TestPipelineRunErrors(t *testing.T) {
	p := New(testConfig(), nil, nil)

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrNoTrails)

	// A trail below the minimum length filters out, leaving nothing.
	tiny := []types.Trail{{
		ID: "tiny", Name: "Stub", Region: "boulder",
		Geom: []types.Point{
			{Lon: -105.29, Lat: 39.99},
			{Lon: -105.289999, Lat: 39.99},
		},
	}}
	_, err = p.Run(context.Background(), tiny)
	require.Error(t, err)
}

func TestPipelineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testConfig(), nil, nil)
	_, err := p.Run(ctx, crossingTrails())
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	p := New(testConfig(), nil, nil)
	res, err := p.Run(context.Background(), crossingTrails())
	require.NoError(t, err)

	db := sqlite.NewBackend()
	require.NoError(t, db.AttachFresh(filepath.Join(t.TempDir(), "carthorse.db")))
	defer db.Detach()

	require.NoError(t, Save(db, res))

	trails, err := db.ListTrails("boulder")
	require.NoError(t, err)
	assert.Len(t, trails, len(res.Network.Trails))

	nodes, err := db.ListNodes()
	require.NoError(t, err)
	assert.Len(t, nodes, len(res.Network.Nodes))

	edges, err := db.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, len(res.Network.Edges))

	routes, err := db.ListRoutes()
	require.NoError(t, err)
	assert.Len(t, routes, len(res.Routes))

	meta, err := db.GetRegionMetadata("boulder")
	require.NoError(t, err)
	assert.Equal(t, len(res.Network.Trails), meta.TrailCount)
	assert.Equal(t, len(res.Routes), meta.RouteCount)
	assert.Less(t, meta.BBox.Min[0], meta.BBox.Max[0])
}

func TestSaveWithoutNetwork(t *testing.T) {
	db := sqlite.NewBackend()
	require.NoError(t, db.AttachFresh(filepath.Join(t.TempDir(), "carthorse.db")))
	defer db.Detach()

	require.ErrorIs(t, Save(db, &Result{}), types.ErrEmptyGraph)
}
