// Package ingest loads trail geometries from GeoJSON FeatureCollections and
// GPX files into types.Trail values ready for topology processing.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// propertyName pulls a display name out of feature properties, trying the
// keys the common trail exports use.
func propertyName(props geojson.Properties) string {
	for _, key := range []string{"name", "Name", "trail_name", "title"} {
		if v, ok := props[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// recalcTrailStats fills the derived length and elevation fields.
func recalcTrailStats(t *types.Trail) {
	t.LengthKm = geometry.LengthMeters(t.Geom) / 1000
	gain, loss, min, max, avg := geometry.ElevationStats(t.Geom)
	t.ElevationGain = gain
	t.ElevationLoss = loss
	t.MinElevation = min
	t.MaxElevation = max
	t.AvgElevation = avg
}

// rawGeometry mirrors the coordinate arrays of a GeoJSON geometry so the
// third ordinate survives. orb's decoder is 2D and drops elevations.
type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type rawCollection struct {
	Features []struct {
		Geometry rawGeometry `json:"geometry"`
	} `json:"features"`
}

// lineElevations decodes [[lon,lat,ele], ...] and returns the elevations, or
// nil when the coordinates are 2D.
func lineElevations(coords json.RawMessage) []float64 {
	var pts [][]float64
	if err := json.Unmarshal(coords, &pts); err != nil {
		return nil
	}
	out := make([]float64, len(pts))
	any := false
	for i, p := range pts {
		if len(p) >= 3 {
			out[i] = p[2]
			any = true
		}
	}
	if !any {
		return nil
	}
	return out
}

func trailFromLine(name, region string, line orb.LineString, elevations []float64) types.Trail {
	pts := make([]types.Point, len(line))
	for i, p := range line {
		pts[i] = types.Point{Lon: p[0], Lat: p[1]}
		if i < len(elevations) {
			pts[i].Elevation = elevations[i]
		}
	}
	t := types.Trail{
		ID:     newTrailID(),
		Name:   name,
		Region: region,
		Geom:   pts,
	}
	recalcTrailStats(&t)
	return t
}

// LoadGeoJSON reads a FeatureCollection and returns one trail per LineString
// feature. MultiLineString features yield one trail per member line, with the
// member index appended to the name. Non-line features are counted as skipped
// in the diagnostics but do not fail the load.
func LoadGeoJSON(path, region string, diag *types.Diagnostics) ([]types.Trail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse geojson coordinates: %w", err)
	}

	var trails []types.Trail
	for i, f := range fc.Features {
		name := propertyName(f.Properties)
		if name == "" {
			name = fmt.Sprintf("Unnamed Trail %d", i+1)
		}

		var rawGeom rawGeometry
		if i < len(raw.Features) {
			rawGeom = raw.Features[i].Geometry
		}

		switch g := f.Geometry.(type) {
		case orb.LineString:
			trails = append(trails, trailFromLine(name, region, g, lineElevations(rawGeom.Coordinates)))
		case orb.MultiLineString:
			var members []json.RawMessage
			if rawGeom.Coordinates != nil {
				_ = json.Unmarshal(rawGeom.Coordinates, &members)
			}
			for j, line := range g {
				member := name
				if len(g) > 1 {
					member = fmt.Sprintf("%s (%d)", name, j+1)
				}
				var elevations []float64
				if j < len(members) {
					elevations = lineElevations(members[j])
				}
				trails = append(trails, trailFromLine(member, region, line, elevations))
			}
		default:
			diag.Warn(types.ErrGeometry, "ingest", name,
				fmt.Sprintf("feature %d: skipping %s geometry", i, f.Geometry.GeoJSONType()))
		}
	}

	if len(trails) == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNoTrails)
	}
	diag.TrailsIn += len(trails)
	return trails, nil
}
