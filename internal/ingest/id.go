package ingest

import "github.com/google/uuid"

// newTrailID generates a UUID v7 for ingested trails, falling back to v4 if
// v7 generation fails.
func newTrailID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
