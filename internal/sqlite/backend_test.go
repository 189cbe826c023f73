package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

func attachTemp(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(filepath.Join(t.TempDir(), "carthorse.db")))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func sampleTrail(id, name string) types.Trail {
	return types.Trail{
		ID:     id,
		Name:   name,
		Region: "boulder",
		Geom: []types.Point{
			{Lon: -105.29, Lat: 39.99, Elevation: 1700},
			{Lon: -105.28, Lat: 39.99, Elevation: 1750},
		},
		LengthKm:      0.85,
		ElevationGain: 50,
		MinElevation:  1700,
		MaxElevation:  1750,
		AvgElevation:  1725,
	}
}

func TestBackendLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carthorse.db")

	b := NewBackend()

	// Detached operations fail.
	_, err := b.ListTrails("")
	require.ErrorIs(t, err, types.ErrDetached)

	require.NoError(t, b.Attach(path))
	assert.Equal(t, path, b.Path())

	// Double attach fails.
	require.ErrorIs(t, b.Attach(path), types.ErrAttached)

	// Detach is idempotent.
	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())
	assert.Empty(t, b.Path())

	_, err = b.ListTrails("")
	require.ErrorIs(t, err, types.ErrDetached)
}

func TestAttachFreshResetsDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carthorse.db")

	b := NewBackend()
	require.NoError(t, b.Attach(path))
	require.NoError(t, b.InsertTrails([]types.Trail{sampleTrail("t-1", "Mesa Trail")}))
	require.NoError(t, b.Detach())

	// Re-attach preserves data.
	require.NoError(t, b.Attach(path))
	trails, err := b.ListTrails("")
	require.NoError(t, err)
	assert.Len(t, trails, 1)
	require.NoError(t, b.Detach())

	// Fresh attach wipes it.
	require.NoError(t, b.AttachFresh(path))
	defer b.Detach()
	trails, err = b.ListTrails("")
	require.NoError(t, err)
	assert.Empty(t, trails)
}

func TestTrailsRoundTrip(t *testing.T) {
	b := attachTemp(t)

	in := sampleTrail("t-1", "Mesa Trail")
	in.DerivedFrom = "t-0"
	require.NoError(t, b.InsertTrails([]types.Trail{in, sampleTrail("t-2", "Bear Canyon")}))

	got, err := b.GetTrail("t-1")
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Region, got.Region)
	assert.Equal(t, in.DerivedFrom, got.DerivedFrom)
	require.Len(t, got.Geom, 2)
	assert.Equal(t, in.Geom[0].Lon, got.Geom[0].Lon)
	assert.Equal(t, in.Geom[1].Elevation, got.Geom[1].Elevation)
	assert.Equal(t, in.LengthKm, got.LengthKm)

	// List is name-ordered.
	trails, err := b.ListTrails("boulder")
	require.NoError(t, err)
	require.Len(t, trails, 2)
	assert.Equal(t, "Bear Canyon", trails[0].Name)

	trails, err = b.ListTrails("elsewhere")
	require.NoError(t, err)
	assert.Empty(t, trails)

	_, err = b.GetTrail("missing")
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetTrail("")
	require.ErrorIs(t, err, types.ErrInvalidID)
}

func graphFixture() ([]*types.Node, []*types.Edge) {
	nodes := []*types.Node{
		{ID: 1, Point: types.Point{Lon: -105.29, Lat: 39.99, Elevation: 1700}, Kind: types.NodeEndpoint, TrailNames: []string{"Mesa Trail"}},
		{ID: 2, Point: types.Point{Lon: -105.28, Lat: 39.99, Elevation: 1750}, Kind: types.NodeJunction, TrailNames: []string{"Mesa Trail", "Bear Canyon"}},
		{ID: 3, Point: types.Point{Lon: -105.28, Lat: 40.00, Elevation: 1800}, Kind: types.NodeEndpoint, TrailNames: []string{"Bear Canyon"}},
	}
	edges := []*types.Edge{
		{ID: 1, Source: 1, Target: 2, TrailID: "t-1", TrailName: "Mesa Trail", LengthKm: 0.85, ElevationGain: 50,
			Geom: []types.Point{nodes[0].Point, nodes[1].Point}},
		{ID: 2, Source: 2, Target: 3, TrailID: "t-2", TrailName: "Bear Canyon", LengthKm: 1.1, ElevationGain: 50,
			Geom: []types.Point{nodes[1].Point, nodes[2].Point}},
	}
	return nodes, edges
}

func TestGraphRoundTrip(t *testing.T) {
	b := attachTemp(t)

	nodes, edges := graphFixture()
	require.NoError(t, b.InsertNodes(nodes))
	require.NoError(t, b.InsertEdges(edges))

	gotNodes, err := b.ListNodes()
	require.NoError(t, err)
	require.Len(t, gotNodes, 3)
	assert.Equal(t, types.NodeJunction, gotNodes[1].Kind)
	assert.Equal(t, []string{"Mesa Trail", "Bear Canyon"}, gotNodes[1].TrailNames)
	assert.Equal(t, 1750.0, gotNodes[1].Point.Elevation)

	gotEdges, err := b.ListEdges()
	require.NoError(t, err)
	require.Len(t, gotEdges, 2)
	assert.Equal(t, int64(1), gotEdges[0].Source)
	assert.Equal(t, int64(2), gotEdges[0].Target)
	require.Len(t, gotEdges[0].Geom, 2)

	// Referential integrity: every edge endpoint is a stored node.
	byID := make(map[int64]bool)
	for _, n := range gotNodes {
		byID[n.ID] = true
	}
	for _, e := range gotEdges {
		assert.True(t, byID[e.Source])
		assert.True(t, byID[e.Target])
	}
}

func TestRoutesRoundTrip(t *testing.T) {
	b := attachTemp(t)

	_, edges := graphFixture()
	byID := map[int64]*types.Edge{1: edges[0], 2: edges[1]}

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	routes := []types.Route{
		{ID: "r-1", Name: "Mesa Trail / Bear Canyon Loop - 9.8km", Shape: types.ShapeLoop,
			EdgeIDs: []int64{1, 2}, LengthKm: 9.8, ElevationGain: 320, Score: 0.93,
			TrailCount: 2, CreatedAt: created},
		{ID: "r-2", Name: "Mesa Trail - 10.4km", Shape: types.ShapeOutAndBack,
			EdgeIDs: []int64{1, 1}, LengthKm: 10.4, ElevationGain: 100, Score: 0.97,
			TrailCount: 1, CreatedAt: created},
	}
	require.NoError(t, b.InsertRoutes(routes, byID))

	// Best score first.
	got, err := b.ListRoutes()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r-2", got[0].ID)
	assert.Equal(t, "r-1", got[1].ID)
	assert.Equal(t, []int64{1, 2}, got[1].EdgeIDs)
	assert.Equal(t, types.ShapeLoop, got[1].Shape)
	assert.Equal(t, created, got[1].CreatedAt)

	r, err := b.GetRoute("r-1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.TrailCount)

	_, err = b.GetRoute("missing")
	require.ErrorIs(t, err, types.ErrNotFound)

	// route_path holds a MultiLineString with one member per edge.
	paths, err := b.RoutePaths()
	require.NoError(t, err)
	var geom struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal([]byte(paths["r-1"]), &geom))
	assert.Equal(t, "MultiLineString", geom.Type)
	assert.Len(t, geom.Coordinates, 2)
}

func TestInsertRoutesMissingEdge(t *testing.T) {
	b := attachTemp(t)

	routes := []types.Route{{ID: "r-1", Name: "Broken", Shape: types.ShapeLoop, EdgeIDs: []int64{42}}}
	err := b.InsertRoutes(routes, map[int64]*types.Edge{})
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestRegionMetadata(t *testing.T) {
	b := attachTemp(t)

	m := RegionMetadata{
		Region:     "boulder",
		TrailCount: 42,
		NodeCount:  17,
		EdgeCount:  23,
		RouteCount: 5,
	}
	m.BBox.Min = [2]float64{-105.35, 39.95}
	m.BBox.Max = [2]float64{-105.20, 40.05}
	require.NoError(t, b.UpsertRegionMetadata(m))

	got, err := b.GetRegionMetadata("boulder")
	require.NoError(t, err)
	assert.Equal(t, 42, got.TrailCount)
	assert.Equal(t, -105.35, got.BBox.Min[0])
	assert.False(t, got.CreatedAt.IsZero())

	// Upsert replaces.
	m.RouteCount = 9
	require.NoError(t, b.UpsertRegionMetadata(m))
	got, err = b.GetRegionMetadata("boulder")
	require.NoError(t, err)
	assert.Equal(t, 9, got.RouteCount)

	_, err = b.GetRegionMetadata("elsewhere")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestExportRoutesGeoJSON(t *testing.T) {
	b := attachTemp(t)

	_, edges := graphFixture()
	byID := map[int64]*types.Edge{1: edges[0], 2: edges[1]}
	routes := []types.Route{
		{ID: "r-1", Name: "Mesa Loop", Shape: types.ShapeLoop, EdgeIDs: []int64{1, 2},
			LengthKm: 9.8, ElevationGain: 320, Score: 0.93, TrailCount: 2},
	}
	require.NoError(t, b.InsertRoutes(routes, byID))

	out := filepath.Join(t.TempDir(), "exports", "routes.geojson")
	n, err := b.ExportRoutesGeoJSON(out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
			Geometry   struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	props := fc.Features[0].Properties
	assert.Equal(t, "r-1", props["route_uuid"])
	assert.Equal(t, "Mesa Loop", props["route_name"])
	assert.Equal(t, "loop", props["route_shape"])
	assert.Equal(t, "routes", props["layer"])
	assert.Equal(t, "MultiLineString", fc.Features[0].Geometry.Type)
}

func TestExportTrailsGeoJSON(t *testing.T) {
	b := attachTemp(t)

	in := sampleTrail("t-1", "Mesa Trail")
	require.NoError(t, b.InsertTrails([]types.Trail{in}))

	out := filepath.Join(t.TempDir(), "trails.geojson")
	n, err := b.ExportTrailsGeoJSON(out, "boulder", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
			Geometry   struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	coords := fc.Features[0].Geometry.Coordinates
	require.Len(t, coords, 2)

	// Coordinates round-trip with elevation as the third ordinate.
	require.Len(t, coords[0], 3)
	assert.Equal(t, in.Geom[0].Lon, coords[0][0])
	assert.Equal(t, in.Geom[0].Lat, coords[0][1])
	assert.Equal(t, in.Geom[0].Elevation, coords[0][2])
}

func TestExportTrailsSimplifies(t *testing.T) {
	b := attachTemp(t)

	// A straight-ish line with a redundant midpoint well under tolerance.
	trail := types.Trail{
		ID: "t-1", Name: "Straight", Region: "boulder",
		Geom: []types.Point{
			{Lon: -105.29, Lat: 39.99, Elevation: 1700},
			{Lon: -105.285, Lat: 39.990001, Elevation: 1710},
			{Lon: -105.28, Lat: 39.99, Elevation: 1720},
		},
	}
	require.NoError(t, b.InsertTrails([]types.Trail{trail}))

	out := filepath.Join(t.TempDir(), "trails.geojson")
	_, err := b.ExportTrailsGeoJSON(out, "boulder", 5.0)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var fc struct {
		Features []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Len(t, fc.Features[0].Geometry.Coordinates, 2)
}
