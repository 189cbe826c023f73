// This file implements the routing_nodes table accessor.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// InsertNodes writes routing graph nodes in a single transaction.
func (b *Backend) InsertNodes(nodes []*types.Node) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin nodes insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO routing_nodes
		(id, lat, lng, elevation, node_type, connected_trails)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare nodes insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		trails, err := encodeStrings(n.TrailNames)
		if err != nil {
			return fmt.Errorf("node %d: encode connected trails: %w", n.ID, err)
		}
		if _, err := stmt.Exec(n.ID, n.Point.Lat, n.Point.Lon, n.Point.Elevation, n.Kind, trails); err != nil {
			return fmt.Errorf("insert node %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit nodes insert: %w", err)
	}
	return nil
}

// ListNodes returns all routing nodes ordered by id.
func (b *Backend) ListNodes() ([]*types.Node, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT id, lat, lng, elevation, node_type,
		connected_trails FROM routing_nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*types.Node
	for rows.Next() {
		var n types.Node
		var trails string
		if err := rows.Scan(&n.ID, &n.Point.Lat, &n.Point.Lon, &n.Point.Elevation, &n.Kind, &trails); err != nil {
			return nil, fmt.Errorf("hydrate node: %w", err)
		}
		names, err := decodeStrings(trails)
		if err != nil {
			return nil, fmt.Errorf("node %d: decode connected trails: %w", n.ID, err)
		}
		n.TrailNames = names
		nodes = append(nodes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}
