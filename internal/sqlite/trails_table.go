// This file implements the trails table accessor.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// InsertTrails writes processed trail segments in a single transaction.
func (b *Backend) InsertTrails(trails []types.Trail) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin trails insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO trails
		(app_uuid, name, region, geojson, length_km, elevation_gain,
		 elevation_loss, min_elevation, max_elevation, avg_elevation,
		 source_uuid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trails insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, t := range trails {
		if t.ID == "" {
			return fmt.Errorf("trail %q: %w", t.Name, types.ErrInvalidID)
		}
		geom, err := encodeLine(t.Geom)
		if err != nil {
			return fmt.Errorf("trail %s: %w", t.ID, err)
		}
		var source *string
		if t.DerivedFrom != "" {
			source = &t.DerivedFrom
		}
		if _, err := stmt.Exec(
			t.ID, t.Name, t.Region, geom, t.LengthKm, t.ElevationGain,
			t.ElevationLoss, t.MinElevation, t.MaxElevation, t.AvgElevation,
			source, now,
		); err != nil {
			return fmt.Errorf("insert trail %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trails insert: %w", err)
	}
	return nil
}

// GetTrail retrieves a trail by its UUID.
func (b *Backend) GetTrail(id string) (types.Trail, error) {
	if id == "" {
		return types.Trail{}, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return types.Trail{}, err
	}

	row := db.QueryRow(`SELECT app_uuid, name, region, geojson, length_km,
		elevation_gain, elevation_loss, min_elevation, max_elevation,
		avg_elevation, source_uuid
		FROM trails WHERE app_uuid = ?`, id)
	t, err := hydrateTrail(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Trail{}, types.ErrNotFound
		}
		return types.Trail{}, fmt.Errorf("get trail %s: %w", id, err)
	}
	return t, nil
}

// ListTrails returns all trails for a region, or every trail when region is
// empty, ordered by name.
func (b *Backend) ListTrails(region string) ([]types.Trail, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := `SELECT app_uuid, name, region, geojson, length_km,
		elevation_gain, elevation_loss, min_elevation, max_elevation,
		avg_elevation, source_uuid FROM trails`
	var args []any
	if region != "" {
		query += " WHERE region = ?"
		args = append(args, region)
	}
	query += " ORDER BY name, app_uuid"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trails: %w", err)
	}
	defer rows.Close()

	var trails []types.Trail
	for rows.Next() {
		t, err := hydrateTrail(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("hydrate trail: %w", err)
		}
		trails = append(trails, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trails: %w", err)
	}
	return trails, nil
}

func hydrateTrail(scan func(...any) error) (types.Trail, error) {
	var t types.Trail
	var geom string
	var source sql.NullString
	if err := scan(&t.ID, &t.Name, &t.Region, &geom, &t.LengthKm,
		&t.ElevationGain, &t.ElevationLoss, &t.MinElevation,
		&t.MaxElevation, &t.AvgElevation, &source); err != nil {
		return types.Trail{}, err
	}
	pts, err := decodeLine(geom)
	if err != nil {
		return types.Trail{}, err
	}
	t.Geom = pts
	if source.Valid {
		t.DerivedFrom = source.String
	}
	return t, nil
}
