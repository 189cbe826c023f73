package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// encodeLine serializes trail geometry as a GeoJSON LineString with
// elevation as the third ordinate. orb's geometry marshalling is 2D, so the
// coordinate arrays are built directly.
func encodeLine(pts []types.Point) (string, error) {
	coords := make([][3]float64, len(pts))
	for i, p := range pts {
		coords[i] = [3]float64{p.Lon, p.Lat, p.Elevation}
	}
	obj := struct {
		Type        string       `json:"type"`
		Coordinates [][3]float64 `json:"coordinates"`
	}{Type: "LineString", Coordinates: coords}

	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("encode line: %w", err)
	}
	return string(data), nil
}

// decodeLine parses a GeoJSON LineString written by encodeLine. 2D inputs
// are accepted with zero elevation.
func decodeLine(text string) ([]types.Point, error) {
	var obj struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("decode line: %w", err)
	}
	if obj.Type != "LineString" {
		return nil, fmt.Errorf("decode line: unexpected geometry type %q", obj.Type)
	}
	pts := make([]types.Point, len(obj.Coordinates))
	for i, c := range obj.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("decode line: coordinate %d has %d ordinates", i, len(c))
		}
		pts[i] = types.Point{Lon: c[0], Lat: c[1]}
		if len(c) >= 3 {
			pts[i].Elevation = c[2]
		}
	}
	return pts, nil
}

// routePath assembles a route's geometry as a GeoJSON MultiLineString, one
// member line per edge in walk order.
func routePath(r types.Route, edges map[int64]*types.Edge) (string, error) {
	lines := make(orb.MultiLineString, 0, len(r.EdgeIDs))
	for _, id := range r.EdgeIDs {
		e, ok := edges[id]
		if !ok {
			return "", fmt.Errorf("route %s: %w: edge %d", r.ID, types.ErrNotFound, id)
		}
		lines = append(lines, types.LineString(e.Geom))
	}
	data, err := geojson.NewGeometry(lines).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode route path: %w", err)
	}
	return string(data), nil
}

// encodeStrings and decodeStrings handle JSON string-array columns such as
// routing_nodes.connected_trails.
func encodeStrings(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	data, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(text string) ([]string, error) {
	var vals []string
	if err := json.Unmarshal([]byte(text), &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

func encodeInt64s(vals []int64) (string, error) {
	if vals == nil {
		vals = []int64{}
	}
	data, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeInt64s(text string) ([]int64, error) {
	var vals []int64
	if err := json.Unmarshal([]byte(text), &vals); err != nil {
		return nil, err
	}
	return vals, nil
}
