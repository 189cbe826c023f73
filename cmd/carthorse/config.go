// Config loading for the carthorse CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir = "data_dir"
)

// Engine config keys, matching the yaml tags on types.Config.
const (
	cfgKeyIntersectionTolerance = "intersection_tolerance_m"
	cfgKeyNearMissTolerance     = "near_miss_tolerance_m"
	cfgKeyMinTrailLength        = "min_trail_length_m"
	cfgKeyMinSegmentLength      = "min_segment_length_m"
	cfgKeyNodeTolerance         = "node_tolerance_m"
	cfgKeyMaxSplitIterations    = "max_split_iterations"
	cfgKeyTargetDistanceKm      = "target_distance_km"
	cfgKeyTargetElevationM      = "target_elevation_m"
	cfgKeyTolerancePercent      = "tolerance_percent"
	cfgKeyMaxRoutes             = "max_routes"
	cfgKeyMaxAnchors            = "max_anchors"
	cfgKeyMaxDestinations       = "max_destinations"
	cfgKeyMaxPathsPerPair       = "max_paths_per_pair"
	cfgKeyMaxCircuitEdges       = "max_circuit_edges"
	cfgKeyMaxCandidates         = "max_candidates"
	cfgKeyMaxOverlapFraction    = "max_overlap_fraction"
	cfgKeyWorkers               = "workers"
	cfgKeySimplifyTolerance     = "simplify_tolerance_m"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Carthorse CLI configuration.
# Values below are the defaults; uncomment to override.

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Topology tolerances, meters
# intersection_tolerance_m: 2.0
# near_miss_tolerance_m: 10.0
# min_trail_length_m: 50.0
# min_segment_length_m: 5.0
# node_tolerance_m: 2.0
# max_split_iterations: 10

# Route discovery targets
# target_distance_km: 10.0
# target_elevation_m: 300.0
# tolerance_percent: 20.0
# max_routes: 10

# Search budgets
# max_anchors: 50
# max_destinations: 25
# max_paths_per_pair: 3
# max_circuit_edges: 400
# max_candidates: 10000
# max_overlap_fraction: 0.3

# workers: 0 means one per CPU
# workers: 0

# Geometry simplification on export, meters (0 disables)
# simplify_tolerance_m: 0.0
`

// loadConfig reads config.yaml from the resolved config directory using
// viper. It creates the config directory and a default config.yaml on first
// run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setEngineDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func setEngineDefaults(v *viper.Viper) {
	def := types.DefaultConfig()
	v.SetDefault(cfgKeyIntersectionTolerance, def.IntersectionTolerance)
	v.SetDefault(cfgKeyNearMissTolerance, def.NearMissTolerance)
	v.SetDefault(cfgKeyMinTrailLength, def.MinTrailLength)
	v.SetDefault(cfgKeyMinSegmentLength, def.MinSegmentLength)
	v.SetDefault(cfgKeyNodeTolerance, def.NodeTolerance)
	v.SetDefault(cfgKeyMaxSplitIterations, def.MaxSplitIterations)
	v.SetDefault(cfgKeyTargetDistanceKm, def.TargetDistanceKm)
	v.SetDefault(cfgKeyTargetElevationM, def.TargetElevationM)
	v.SetDefault(cfgKeyTolerancePercent, def.TolerancePercent)
	v.SetDefault(cfgKeyMaxRoutes, def.MaxRoutes)
	v.SetDefault(cfgKeyMaxAnchors, def.MaxAnchors)
	v.SetDefault(cfgKeyMaxDestinations, def.MaxDestinations)
	v.SetDefault(cfgKeyMaxPathsPerPair, def.MaxPathsPerPair)
	v.SetDefault(cfgKeyMaxCircuitEdges, def.MaxCircuitEdges)
	v.SetDefault(cfgKeyMaxCandidates, def.MaxCandidates)
	v.SetDefault(cfgKeyMaxOverlapFraction, def.MaxOverlapFraction)
	v.SetDefault(cfgKeyWorkers, def.Workers)
	v.SetDefault(cfgKeySimplifyTolerance, def.SimplifyToleranceM)
}

// engineConfig materializes a validated types.Config from the loaded viper
// instance, applying any command-line overrides the caller set on v first.
func engineConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		IntersectionTolerance: v.GetFloat64(cfgKeyIntersectionTolerance),
		NearMissTolerance:     v.GetFloat64(cfgKeyNearMissTolerance),
		MinTrailLength:        v.GetFloat64(cfgKeyMinTrailLength),
		MinSegmentLength:      v.GetFloat64(cfgKeyMinSegmentLength),
		NodeTolerance:         v.GetFloat64(cfgKeyNodeTolerance),
		MaxSplitIterations:    v.GetInt(cfgKeyMaxSplitIterations),
		TargetDistanceKm:      v.GetFloat64(cfgKeyTargetDistanceKm),
		TargetElevationM:      v.GetFloat64(cfgKeyTargetElevationM),
		TolerancePercent:      v.GetFloat64(cfgKeyTolerancePercent),
		MaxRoutes:             v.GetInt(cfgKeyMaxRoutes),
		MaxAnchors:            v.GetInt(cfgKeyMaxAnchors),
		MaxDestinations:       v.GetInt(cfgKeyMaxDestinations),
		MaxPathsPerPair:       v.GetInt(cfgKeyMaxPathsPerPair),
		MaxCircuitEdges:       v.GetInt(cfgKeyMaxCircuitEdges),
		MaxCandidates:         v.GetInt(cfgKeyMaxCandidates),
		MaxOverlapFraction:    v.GetFloat64(cfgKeyMaxOverlapFraction),
		Workers:               v.GetInt(cfgKeyWorkers),
		SimplifyToleranceM:    v.GetFloat64(cfgKeySimplifyTolerance),
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
