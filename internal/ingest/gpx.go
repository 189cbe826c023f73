package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// LoadGPX reads a GPX file and returns one trail per track segment. Segment
// trails inherit the track name, numbered when a track has more than one
// segment. Routes (rte elements) load as additional trails.
func LoadGPX(path, region string, diag *types.Diagnostics) ([]types.Trail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gpx: %w", err)
	}
	defer f.Close()

	data, err := gpx.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var trails []types.Trail
	for ti, track := range data.Tracks {
		name := strings.TrimSpace(track.Name)
		if name == "" {
			name = fmt.Sprintf("%s Track %d", base, ti+1)
		}
		for si, seg := range track.Segments {
			segName := name
			if len(track.Segments) > 1 {
				segName = fmt.Sprintf("%s (%d)", name, si+1)
			}
			t, ok := trailFromGPXPoints(segName, region, seg.Points)
			if !ok {
				diag.Warn(types.ErrGeometry, "ingest", segName, "skipping track segment with fewer than 2 points")
				continue
			}
			trails = append(trails, t)
		}
	}

	for ri, route := range data.Routes {
		name := strings.TrimSpace(route.Name)
		if name == "" {
			name = fmt.Sprintf("%s Route %d", base, ri+1)
		}
		t, ok := trailFromGPXPoints(name, region, route.Points)
		if !ok {
			diag.Warn(types.ErrGeometry, "ingest", name, "skipping route with fewer than 2 points")
			continue
		}
		trails = append(trails, t)
	}

	if len(trails) == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNoTrails)
	}
	diag.TrailsIn += len(trails)
	return trails, nil
}

func trailFromGPXPoints(name, region string, points []gpx.GPXPoint) (types.Trail, bool) {
	if len(points) < 2 {
		return types.Trail{}, false
	}
	pts := make([]types.Point, len(points))
	for i, p := range points {
		pts[i] = types.Point{Lon: p.Longitude, Lat: p.Latitude}
		if p.Elevation.NotNull() {
			pts[i].Elevation = p.Elevation.Value()
		}
	}
	t := types.Trail{
		ID:     newTrailID(),
		Name:   name,
		Region: region,
		Geom:   pts,
	}
	recalcTrailStats(&t)
	return t, true
}
