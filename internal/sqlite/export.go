// This file implements GeoJSON export from the database, mirroring the
// downstream extraction tooling's feature layout so exports stay drop-in
// compatible.
package sqlite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/carthorse/internal/geometry"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// ExportRoutesGeoJSON writes every route recommendation as a feature in a
// GeoJSON FeatureCollection, best score first. Geometry is simplified with
// the given tolerance in meters; zero disables simplification.
func (b *Backend) ExportRoutesGeoJSON(path string, simplifyTolM float64) (int, error) {
	routes, err := b.ListRoutes()
	if err != nil {
		return 0, err
	}
	paths, err := b.RoutePaths()
	if err != nil {
		return 0, err
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		geomText, ok := paths[r.ID]
		if !ok || geomText == "" {
			continue
		}
		g, err := geojson.UnmarshalGeometry([]byte(geomText))
		if err != nil {
			return 0, fmt.Errorf("route %s: %w", r.ID, err)
		}
		geom := g.Geometry()
		if lines, ok := geom.(orb.MultiLineString); ok && simplifyTolM > 0 {
			for i, line := range lines {
				lines[i] = geometry.SimplifyLine(line, simplifyTolM)
			}
			geom = lines
		}

		f := geojson.NewFeature(geom)
		f.Properties = geojson.Properties{
			"id":                         r.ID,
			"route_uuid":                 r.ID,
			"route_name":                 r.Name,
			"route_score":                r.Score,
			"route_shape":                r.Shape,
			"recommended_length_km":      r.LengthKm,
			"recommended_elevation_gain": r.ElevationGain,
			"trail_count":                r.TrailCount,
			"created_at":                 r.CreatedAt.Format(time.RFC3339),
			"layer":                      "routes",
		}
		fc.Append(f)
	}

	if err := writeCollection(path, fc); err != nil {
		return 0, err
	}
	return len(fc.Features), nil
}

// trailFeature is a GeoJSON feature with a 3D LineString geometry. orb
// geometries are 2D, so trail exports marshal their own coordinate arrays to
// keep elevations as third ordinates.
type trailFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type trailCollection struct {
	Type     string         `json:"type"`
	Features []trailFeature `json:"features"`
}

// ExportTrailsGeoJSON writes the processed trail segments of a region as a
// FeatureCollection. Elevations ride as third ordinates in the coordinates.
func (b *Backend) ExportTrailsGeoJSON(path, region string, simplifyTolM float64) (int, error) {
	trails, err := b.ListTrails(region)
	if err != nil {
		return 0, err
	}

	fc := trailCollection{Type: "FeatureCollection", Features: []trailFeature{}}
	for _, t := range trails {
		geom := t.Geom
		if simplifyTolM > 0 {
			line := geometry.SimplifyLine(types.LineString(geom), simplifyTolM)
			geom = resampleElevations(t.Geom, line)
		}
		geomJSON, err := encodeLine(geom)
		if err != nil {
			return 0, fmt.Errorf("trail %s: %w", t.ID, err)
		}

		fc.Features = append(fc.Features, trailFeature{
			Type:     "Feature",
			Geometry: json.RawMessage(geomJSON),
			Properties: map[string]any{
				"id":             t.ID,
				"name":           t.Name,
				"region":         t.Region,
				"length_km":      t.LengthKm,
				"elevation_gain": t.ElevationGain,
				"elevation_loss": t.ElevationLoss,
				"layer":          "trails",
			},
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode feature collection: %w", err)
	}
	if err := writeFileAt(path, data); err != nil {
		return 0, err
	}
	return len(fc.Features), nil
}

// resampleElevations restores elevations on simplified geometry by matching
// surviving vertices back to the originals.
func resampleElevations(orig []types.Point, line orb.LineString) []types.Point {
	byKey := make(map[[2]float64]float64, len(orig))
	for _, p := range orig {
		byKey[[2]float64{p.Lon, p.Lat}] = p.Elevation
	}
	out := make([]types.Point, len(line))
	for i, p := range line {
		out[i] = types.Point{Lon: p[0], Lat: p[1], Elevation: byKey[[2]float64{p[0], p[1]}]}
	}
	return out
}

func writeCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}
	return writeFileAt(path, data)
}

func writeFileAt(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write feature collection: %w", err)
	}
	return nil
}
