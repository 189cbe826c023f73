package types

import "errors"

// Config holds the tolerances and budgets for one network build. Distances
// are meters unless noted. Zero values are replaced by defaults via
// ApplyDefaults; Validate rejects structurally unusable combinations.
type Config struct {
	// Geometry tolerances.
	IntersectionTolerance float64 `json:"intersection_tolerance_m" yaml:"intersection_tolerance_m"`
	NearMissTolerance     float64 `json:"near_miss_tolerance_m" yaml:"near_miss_tolerance_m"`
	MinTrailLength        float64 `json:"min_trail_length_m" yaml:"min_trail_length_m"`
	MinSegmentLength      float64 `json:"min_segment_length_m" yaml:"min_segment_length_m"`
	NodeTolerance         float64 `json:"node_tolerance_m" yaml:"node_tolerance_m"`

	// Splitter convergence bound.
	MaxSplitIterations int `json:"max_split_iterations" yaml:"max_split_iterations"`

	// Route discovery targets and budgets.
	TargetDistanceKm   float64 `json:"target_distance_km" yaml:"target_distance_km"`
	TargetElevationM   float64 `json:"target_elevation_m" yaml:"target_elevation_m"`
	TolerancePercent   float64 `json:"tolerance_percent" yaml:"tolerance_percent"`
	MaxRoutes          int     `json:"max_routes" yaml:"max_routes"`
	MaxAnchors         int     `json:"max_anchors" yaml:"max_anchors"`
	MaxDestinations    int     `json:"max_destinations" yaml:"max_destinations"`
	MaxPathsPerPair    int     `json:"max_paths_per_pair" yaml:"max_paths_per_pair"`
	MaxCircuitEdges    int     `json:"max_circuit_edges" yaml:"max_circuit_edges"`
	MaxCandidates      int     `json:"max_candidates" yaml:"max_candidates"`
	MaxOverlapFraction float64 `json:"max_overlap_fraction" yaml:"max_overlap_fraction"`

	// Workers bounds stage-internal parallelism; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	// SimplifyToleranceM, when positive, Douglas-Peucker-simplifies exported
	// line geometry. Never applied to routing geometry.
	SimplifyToleranceM float64 `json:"simplify_tolerance_m" yaml:"simplify_tolerance_m"`
}

// Config validation errors.
var (
	ErrToleranceNotPositive  = errors.New("intersection tolerance must be positive")
	ErrNearMissTooSmall      = errors.New("near-miss tolerance must be >= intersection tolerance")
	ErrMinLengthNegative     = errors.New("minimum lengths must not be negative")
	ErrNodeToleranceInvalid  = errors.New("node tolerance must be positive")
	ErrIterationsNotPositive = errors.New("max split iterations must be positive")
	ErrTolerancePercentRange = errors.New("tolerance percent must be in (0, 100]")
	ErrMaxRoutesNotPositive  = errors.New("max routes must be positive")
)

// DefaultConfig returns the configuration used when no overrides are given.
func DefaultConfig() Config {
	return Config{
		IntersectionTolerance: 2.0,
		NearMissTolerance:     10.0,
		MinTrailLength:        50.0,
		MinSegmentLength:      5.0,
		NodeTolerance:         2.0,
		MaxSplitIterations:    10,
		TargetDistanceKm:      10.0,
		TargetElevationM:      300.0,
		TolerancePercent:      20.0,
		MaxRoutes:             10,
		MaxAnchors:            50,
		MaxDestinations:       25,
		MaxPathsPerPair:       3,
		MaxCircuitEdges:       400,
		MaxCandidates:         10000,
		MaxOverlapFraction:    0.3,
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.IntersectionTolerance == 0 {
		c.IntersectionTolerance = d.IntersectionTolerance
	}
	if c.NearMissTolerance == 0 {
		c.NearMissTolerance = d.NearMissTolerance
	}
	if c.MinTrailLength == 0 {
		c.MinTrailLength = d.MinTrailLength
	}
	if c.MinSegmentLength == 0 {
		c.MinSegmentLength = d.MinSegmentLength
	}
	if c.NodeTolerance == 0 {
		c.NodeTolerance = d.NodeTolerance
	}
	if c.MaxSplitIterations == 0 {
		c.MaxSplitIterations = d.MaxSplitIterations
	}
	if c.TargetDistanceKm == 0 {
		c.TargetDistanceKm = d.TargetDistanceKm
	}
	if c.TolerancePercent == 0 {
		c.TolerancePercent = d.TolerancePercent
	}
	if c.MaxRoutes == 0 {
		c.MaxRoutes = d.MaxRoutes
	}
	if c.MaxAnchors == 0 {
		c.MaxAnchors = d.MaxAnchors
	}
	if c.MaxDestinations == 0 {
		c.MaxDestinations = d.MaxDestinations
	}
	if c.MaxPathsPerPair == 0 {
		c.MaxPathsPerPair = d.MaxPathsPerPair
	}
	if c.MaxCircuitEdges == 0 {
		c.MaxCircuitEdges = d.MaxCircuitEdges
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = d.MaxCandidates
	}
	if c.MaxOverlapFraction == 0 {
		c.MaxOverlapFraction = d.MaxOverlapFraction
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.IntersectionTolerance <= 0 {
		return ErrToleranceNotPositive
	}
	if c.NearMissTolerance < c.IntersectionTolerance {
		return ErrNearMissTooSmall
	}
	if c.MinTrailLength < 0 || c.MinSegmentLength < 0 {
		return ErrMinLengthNegative
	}
	if c.NodeTolerance <= 0 {
		return ErrNodeToleranceInvalid
	}
	if c.MaxSplitIterations <= 0 {
		return ErrIterationsNotPositive
	}
	if c.TolerancePercent <= 0 || c.TolerancePercent > 100 {
		return ErrTolerancePercentRange
	}
	if c.MaxRoutes <= 0 {
		return ErrMaxRoutesNotPositive
	}
	return nil
}
