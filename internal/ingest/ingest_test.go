package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const boulderCollection = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "Mesa Trail"},
			"geometry": {
				"type": "LineString",
				"coordinates": [
					[-105.29, 39.99, 1700],
					[-105.28, 39.99, 1750],
					[-105.27, 39.99, 1740]
				]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "Braided Creek"},
			"geometry": {
				"type": "MultiLineString",
				"coordinates": [
					[[-105.30, 40.00], [-105.29, 40.00]],
					[[-105.29, 40.00], [-105.28, 40.00]]
				]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "Trailhead Marker"},
			"geometry": {"type": "Point", "coordinates": [-105.29, 39.99]}
		}
	]
}`

func TestLoadGeoJSON(t *testing.T) {
	var diag types.Diagnostics
	trails, err := LoadGeoJSON(writeFile(t, "boulder.geojson", boulderCollection), "boulder", &diag)
	require.NoError(t, err)
	require.Len(t, trails, 3)

	mesa := trails[0]
	assert.Equal(t, "Mesa Trail", mesa.Name)
	assert.Equal(t, "boulder", mesa.Region)
	assert.NotEmpty(t, mesa.ID)
	require.Len(t, mesa.Geom, 3)

	// Elevations survive the 2D decode.
	assert.Equal(t, 1700.0, mesa.Geom[0].Elevation)
	assert.Equal(t, 1750.0, mesa.Geom[1].Elevation)
	assert.InDelta(t, 50.0, mesa.ElevationGain, 0.01)
	assert.InDelta(t, 10.0, mesa.ElevationLoss, 0.01)
	assert.Greater(t, mesa.LengthKm, 1.0)

	// MultiLineString members become numbered trails.
	assert.Equal(t, "Braided Creek (1)", trails[1].Name)
	assert.Equal(t, "Braided Creek (2)", trails[2].Name)
	assert.Zero(t, trails[1].Geom[0].Elevation)

	// The Point feature is skipped with a warning, not an error.
	assert.True(t, diag.HasWarning(types.ErrGeometry))
	assert.Equal(t, 3, diag.TrailsIn)
}

func TestLoadGeoJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type": "FeatureCollection", "features": [`},
		{"no line features", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`},
		{"empty collection", `{"type":"FeatureCollection","features":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diag types.Diagnostics
			_, err := LoadGeoJSON(writeFile(t, "bad.geojson", tt.body), "boulder", &diag)
			require.Error(t, err)
		})
	}
}

func TestLoadGeoJSONMissingFile(t *testing.T) {
	var diag types.Diagnostics
	_, err := LoadGeoJSON(filepath.Join(t.TempDir(), "absent.geojson"), "boulder", &diag)
	require.Error(t, err)
}

func TestLoadGeoJSONUnnamedFeature(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[-105.29,39.99],[-105.28,39.99]]}}]}`
	var diag types.Diagnostics
	trails, err := LoadGeoJSON(writeFile(t, "unnamed.geojson", body), "boulder", &diag)
	require.NoError(t, err)
	require.Len(t, trails, 1)
	assert.Equal(t, "Unnamed Trail 1", trails[0].Name)
}

const ridgeGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk>
    <name>Ridge Run</name>
    <trkseg>
      <trkpt lat="39.99" lon="-105.29"><ele>1700</ele></trkpt>
      <trkpt lat="39.99" lon="-105.28"><ele>1760</ele></trkpt>
      <trkpt lat="39.99" lon="-105.27"><ele>1720</ele></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="40.00" lon="-105.29"><ele>1800</ele></trkpt>
      <trkpt lat="40.00" lon="-105.28"><ele>1820</ele></trkpt>
    </trkseg>
  </trk>
  <rte>
    <name>Approach</name>
    <rtept lat="39.98" lon="-105.29"></rtept>
    <rtept lat="39.98" lon="-105.28"></rtept>
  </rte>
</gpx>`

func TestLoadGPX(t *testing.T) {
	var diag types.Diagnostics
	trails, err := LoadGPX(writeFile(t, "ridge.gpx", ridgeGPX), "boulder", &diag)
	require.NoError(t, err)
	require.Len(t, trails, 3)

	assert.Equal(t, "Ridge Run (1)", trails[0].Name)
	assert.Equal(t, "Ridge Run (2)", trails[1].Name)
	assert.Equal(t, "Approach", trails[2].Name)

	require.Len(t, trails[0].Geom, 3)
	assert.Equal(t, 1700.0, trails[0].Geom[0].Elevation)
	assert.InDelta(t, 60.0, trails[0].ElevationGain, 0.01)
	assert.InDelta(t, 40.0, trails[0].ElevationLoss, 0.01)
	assert.Equal(t, -105.29, trails[0].Geom[0].Lon)
	assert.Equal(t, 39.99, trails[0].Geom[0].Lat)

	assert.Equal(t, 3, diag.TrailsIn)
}

func TestLoadGPXEmpty(t *testing.T) {
	body := `<?xml version="1.0"?><gpx version="1.1" creator="test"></gpx>`
	var diag types.Diagnostics
	_, err := LoadGPX(writeFile(t, "empty.gpx", body), "boulder", &diag)
	require.ErrorIs(t, err, types.ErrNoTrails)
}

func TestValidateGeoJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantValid  bool
		wantIssues int
	}{
		{
			name:      "clean collection",
			body:      boulderCollection,
			wantValid: true,
		},
		{
			name:       "degenerate line",
			body:       `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[-105.29,39.99],[-105.29,39.99000001]]}}]}`,
			wantValid:  false,
			wantIssues: 1,
		},
		{
			name:       "out of bounds coordinate",
			body:       `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[-105.29,39.99],[-105.28,95.0]]}}]}`,
			wantValid:  false,
			wantIssues: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ValidateGeoJSON(writeFile(t, "check.geojson", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, report.Valid())
			if tt.wantIssues > 0 {
				assert.Len(t, report.Issues, tt.wantIssues)
			}
		})
	}
}

func TestValidateGeoJSONParseError(t *testing.T) {
	_, err := ValidateGeoJSON(writeFile(t, "broken.geojson", `{"type":"FeatureCollection"`))
	require.Error(t, err)
}
