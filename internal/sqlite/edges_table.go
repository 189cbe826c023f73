// This file implements the routing_edges table accessor.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// InsertEdges writes routing graph edges in a single transaction. Node rows
// must be inserted first; the schema enforces the references.
func (b *Backend) InsertEdges(edges []*types.Edge) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin edges insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO routing_edges
		(id, source, target, trail_id, trail_name, length_km,
		 elevation_gain, elevation_loss, geojson)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edges insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		geom, err := encodeLine(e.Geom)
		if err != nil {
			return fmt.Errorf("edge %d: %w", e.ID, err)
		}
		if _, err := stmt.Exec(e.ID, e.Source, e.Target, e.TrailID, e.TrailName,
			e.LengthKm, e.ElevationGain, e.ElevationLoss, geom); err != nil {
			return fmt.Errorf("insert edge %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit edges insert: %w", err)
	}
	return nil
}

// ListEdges returns all routing edges ordered by id.
func (b *Backend) ListEdges() ([]*types.Edge, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT id, source, target, trail_id, trail_name,
		length_km, elevation_gain, elevation_loss, geojson
		FROM routing_edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []*types.Edge
	for rows.Next() {
		var e types.Edge
		var geom string
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.TrailID, &e.TrailName,
			&e.LengthKm, &e.ElevationGain, &e.ElevationLoss, &geom); err != nil {
			return nil, fmt.Errorf("hydrate edge: %w", err)
		}
		pts, err := decodeLine(geom)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", e.ID, err)
		}
		e.Geom = pts
		edges = append(edges, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}
