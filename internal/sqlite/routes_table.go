// This file implements the route_recommendations table accessor. The column
// set matches the downstream route extraction tooling, which reads
// route_uuid, route_name, route_path, route_score, route_shape,
// recommended_length_km, recommended_elevation_gain, trail_count and
// created_at ordered by score.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// InsertRoutes writes route recommendations in a single transaction. The
// edges map provides geometry for route_path assembly; every edge a route
// references must be present.
func (b *Backend) InsertRoutes(routes []types.Route, edges map[int64]*types.Edge) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin routes insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO route_recommendations
		(route_uuid, route_name, route_path, route_score, route_shape,
		 recommended_length_km, recommended_elevation_gain, trail_count,
		 edge_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare routes insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range routes {
		if r.ID == "" {
			return fmt.Errorf("route %q: %w", r.Name, types.ErrInvalidID)
		}
		path, err := routePath(r, edges)
		if err != nil {
			return err
		}
		ids, err := encodeInt64s(r.EdgeIDs)
		if err != nil {
			return fmt.Errorf("route %s: encode edge ids: %w", r.ID, err)
		}
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.Exec(r.ID, r.Name, path, r.Score, r.Shape,
			r.LengthKm, r.ElevationGain, r.TrailCount, ids,
			createdAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert route %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit routes insert: %w", err)
	}
	return nil
}

// GetRoute retrieves one recommendation by UUID.
func (b *Backend) GetRoute(id string) (types.Route, error) {
	if id == "" {
		return types.Route{}, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return types.Route{}, err
	}

	row := db.QueryRow(`SELECT route_uuid, route_name, route_score,
		route_shape, recommended_length_km, recommended_elevation_gain,
		trail_count, edge_ids, created_at
		FROM route_recommendations WHERE route_uuid = ?`, id)
	r, err := hydrateRoute(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Route{}, types.ErrNotFound
		}
		return types.Route{}, fmt.Errorf("get route %s: %w", id, err)
	}
	return r, nil
}

// ListRoutes returns all recommendations best-first: score descending, then
// length ascending for equal scores.
func (b *Backend) ListRoutes() ([]types.Route, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT route_uuid, route_name, route_score,
		route_shape, recommended_length_km, recommended_elevation_gain,
		trail_count, edge_ids, created_at
		FROM route_recommendations
		ORDER BY route_score DESC, recommended_length_km ASC`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var routes []types.Route
	for rows.Next() {
		r, err := hydrateRoute(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("hydrate route: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return routes, nil
}

// RoutePaths returns route_path GeoJSON keyed by route UUID, for export.
func (b *Backend) RoutePaths() (map[string]string, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT route_uuid, route_path FROM route_recommendations`)
	if err != nil {
		return nil, fmt.Errorf("list route paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, fmt.Errorf("scan route path: %w", err)
		}
		paths[id] = path
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate route paths: %w", err)
	}
	return paths, nil
}

func hydrateRoute(scan func(...any) error) (types.Route, error) {
	var r types.Route
	var ids, createdAt string
	if err := scan(&r.ID, &r.Name, &r.Score, &r.Shape, &r.LengthKm,
		&r.ElevationGain, &r.TrailCount, &ids, &createdAt); err != nil {
		return types.Route{}, err
	}
	edgeIDs, err := decodeInt64s(ids)
	if err != nil {
		return types.Route{}, fmt.Errorf("decode edge ids: %w", err)
	}
	r.EdgeIDs = edgeIDs
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return types.Route{}, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}
