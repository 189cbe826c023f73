// This file implements the region_metadata table accessor.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

// RegionMetadata summarizes one region's export.
type RegionMetadata struct {
	Region     string
	TrailCount int
	NodeCount  int
	EdgeCount  int
	RouteCount int
	BBox       orb.Bound
	CreatedAt  time.Time
}

// UpsertRegionMetadata writes or replaces the summary row for a region.
func (b *Backend) UpsertRegionMetadata(m RegionMetadata) error {
	if m.Region == "" {
		return fmt.Errorf("region metadata: %w", types.ErrInvalidID)
	}
	db, err := b.conn()
	if err != nil {
		return err
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = db.Exec(`INSERT INTO region_metadata
		(region, trail_count, node_count, edge_count, route_count,
		 bbox_min_lng, bbox_min_lat, bbox_max_lng, bbox_max_lat, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region) DO UPDATE SET
			trail_count = excluded.trail_count,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			route_count = excluded.route_count,
			bbox_min_lng = excluded.bbox_min_lng,
			bbox_min_lat = excluded.bbox_min_lat,
			bbox_max_lng = excluded.bbox_max_lng,
			bbox_max_lat = excluded.bbox_max_lat,
			created_at = excluded.created_at`,
		m.Region, m.TrailCount, m.NodeCount, m.EdgeCount, m.RouteCount,
		m.BBox.Min[0], m.BBox.Min[1], m.BBox.Max[0], m.BBox.Max[1],
		createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert region metadata: %w", err)
	}
	return nil
}

// GetRegionMetadata retrieves the summary row for a region.
func (b *Backend) GetRegionMetadata(region string) (RegionMetadata, error) {
	if region == "" {
		return RegionMetadata{}, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return RegionMetadata{}, err
	}

	var m RegionMetadata
	var createdAt string
	err = db.QueryRow(`SELECT region, trail_count, node_count, edge_count,
		route_count, bbox_min_lng, bbox_min_lat, bbox_max_lng, bbox_max_lat,
		created_at FROM region_metadata WHERE region = ?`, region).Scan(
		&m.Region, &m.TrailCount, &m.NodeCount, &m.EdgeCount, &m.RouteCount,
		&m.BBox.Min[0], &m.BBox.Min[1], &m.BBox.Max[0], &m.BBox.Max[1],
		&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RegionMetadata{}, types.ErrNotFound
		}
		return RegionMetadata{}, fmt.Errorf("get region metadata: %w", err)
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return RegionMetadata{}, fmt.Errorf("parse created_at: %w", err)
	}
	m.CreatedAt = t
	return m, nil
}
