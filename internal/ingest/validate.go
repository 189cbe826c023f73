package ingest

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// shortLineDegrees flags two-point lines shorter than roughly 10 m, which
// most renderers drop.
const shortLineDegrees = 0.0001

// Report summarizes a GeoJSON validation pass.
type Report struct {
	FeatureCount  int
	GeometryTypes map[string]int
	Issues        []string
}

// Valid reports whether the file parsed and no per-feature issues were found.
func (r *Report) Valid() bool {
	return len(r.Issues) == 0
}

// ValidateGeoJSON checks a FeatureCollection for structural problems before
// it enters the pipeline: malformed geometries, degenerate lines, and
// coordinate arrays of the wrong arity. The returned report lists every
// issue found; an error means the file could not be parsed at all.
func ValidateGeoJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	report := &Report{
		FeatureCount:  len(fc.Features),
		GeometryTypes: make(map[string]int),
	}

	for i, f := range fc.Features {
		if f.Geometry == nil {
			report.Issues = append(report.Issues, fmt.Sprintf("feature %d: missing geometry", i))
			continue
		}
		report.GeometryTypes[f.Geometry.GeoJSONType()]++

		switch g := f.Geometry.(type) {
		case orb.LineString:
			checkLine(report, i, g)
		case orb.MultiLineString:
			for _, line := range g {
				checkLine(report, i, line)
			}
		}
	}

	return report, nil
}

func checkLine(report *Report, idx int, line orb.LineString) {
	if len(line) < 2 {
		report.Issues = append(report.Issues, fmt.Sprintf("feature %d: LineString with fewer than 2 points", idx))
		return
	}
	if len(line) == 2 {
		dx := line[1][0] - line[0][0]
		dy := line[1][1] - line[0][1]
		if math.Hypot(dx, dy) < shortLineDegrees {
			report.Issues = append(report.Issues, fmt.Sprintf("feature %d: very short LineString", idx))
		}
	}
	for j, p := range line {
		if p[1] < -90 || p[1] > 90 || p[0] < -180 || p[0] > 180 {
			report.Issues = append(report.Issues, fmt.Sprintf("feature %d: point %d outside WGS84 bounds", idx, j))
		}
	}
}
