// Package types defines the Carthorse domain model: trails, intersection
// points, routing nodes and edges, route recommendations, build diagnostics,
// and the pipeline configuration with its standard errors.
//
// The types here are passive records. Geometry math lives in
// internal/geometry and the topology algorithms in internal/topology; this
// package only carries the data that flows between pipeline stages and out
// to the export database.
package types
