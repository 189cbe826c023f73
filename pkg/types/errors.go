package types

import "errors"

// Fatal build errors. Only structurally unrecoverable conditions abort a
// build; everything per-trail or per-pair is isolated and reported through
// Diagnostics.
var (
	ErrNoTrails          = errors.New("no input trails")
	ErrAllTrailsFiltered = errors.New("all trails below minimum length")
	ErrEmptyGraph        = errors.New("routing graph has no edges")
)

// Recoverable condition markers. These classify Diagnostics warnings and
// are matched with errors.Is; they never abort a build on their own.
var (
	ErrGeometry         = errors.New("invalid trail geometry")
	ErrConvergenceLimit = errors.New("splitter iteration cap reached")
	ErrDegenerateSplit  = errors.New("segment below minimum length")
	ErrOrphanedTopology = errors.New("node/edge integrity violated")
	ErrSearchBudget     = errors.New("route search budget exhausted")
)

// Storage errors shared by the export database accessors.
var (
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidData   = errors.New("invalid data type for table")
	ErrNotFound      = errors.New("record not found")
	ErrTableNotFound = errors.New("table not found")
	ErrDetached      = errors.New("database not attached")
	ErrAttached      = errors.New("database already attached")
)
