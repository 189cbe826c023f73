// Build command: runs the full topology pipeline over input trail files and
// writes the export database.
package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/carthorse/internal/classifier"
	"github.com/mesh-intelligence/carthorse/internal/ingest"
	"github.com/mesh-intelligence/carthorse/internal/pipeline"
	"github.com/mesh-intelligence/carthorse/internal/sqlite"
	"github.com/mesh-intelligence/carthorse/pkg/types"
)

var (
	buildRegion         string
	buildOutput         string
	buildPredictions    string
	buildTargetDistance float64
	buildTargetGain     float64
	buildMaxRoutes      int
)

var buildCmd = &cobra.Command{
	Use:   "build <input>...",
	Short: "Build the routing graph and route recommendations for a region",
	Long: `Build ingests trail files (GeoJSON FeatureCollections or GPX), splits
trails at detected intersections, constructs and simplifies the routing
graph, discovers routes near the configured targets, and writes everything
to a fresh export database.

Example:
  carthorse build trails.geojson --region boulder
  carthorse build north.gpx south.gpx --region boulder --target-distance 15`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildRegion, "region", "default", "region name for the export")
	buildCmd.Flags().StringVar(&buildOutput, "output", "", "export database path (default: <data-dir>/<region>.db)")
	buildCmd.Flags().StringVar(&buildPredictions, "predictions", "", "node classifier prediction table (JSON)")
	buildCmd.Flags().Float64Var(&buildTargetDistance, "target-distance", 0, "target route distance in km (overrides config)")
	buildCmd.Flags().Float64Var(&buildTargetGain, "target-elevation", 0, "target elevation gain in m (overrides config)")
	buildCmd.Flags().IntVar(&buildMaxRoutes, "max-routes", 0, "maximum recommendations to keep (overrides config)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig(cliConfig)
	if err != nil {
		return err
	}
	if buildTargetDistance > 0 {
		cfg.TargetDistanceKm = buildTargetDistance
	}
	if buildTargetGain > 0 {
		cfg.TargetElevationM = buildTargetGain
	}
	if buildMaxRoutes > 0 {
		cfg.MaxRoutes = buildMaxRoutes
	}

	var predictor classifier.Predictor
	if buildPredictions != "" {
		table, err := classifier.Load(buildPredictions)
		if err != nil {
			return err
		}
		predictor = table
	}

	var trails []types.Trail
	var ingestDiag types.Diagnostics
	for _, path := range args {
		loaded, err := loadTrailFile(path, buildRegion, &ingestDiag)
		if err != nil {
			return err
		}
		trails = append(trails, loaded...)
	}
	logger.Info("trails ingested", "files", len(args), "trails", len(trails))

	p := pipeline.New(cfg, logger, predictor)
	res, err := p.Run(cmd.Context(), trails)
	if err != nil {
		return err
	}
	res.Diagnostics.Merge(&ingestDiag)
	if res.Region == "" {
		res.Region = buildRegion
	}

	dbPath := buildOutput
	if dbPath == "" {
		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		dbPath = filepath.Join(dataDir, buildRegion+".db")
	}

	db := sqlite.NewBackend()
	if err := db.AttachFresh(dbPath); err != nil {
		return err
	}
	defer db.Detach()

	if err := pipeline.Save(db, res); err != nil {
		return err
	}

	fmt.Printf("Build complete: %s\n", dbPath)
	fmt.Printf("  trails:   %d segments (from %d inputs)\n", len(res.Network.Trails), res.Diagnostics.TrailsIn)
	fmt.Printf("  graph:    %d nodes, %d edges\n", len(res.Network.Nodes), len(res.Network.Edges))
	fmt.Printf("  routes:   %d recommendations\n", len(res.Routes))
	if n := len(res.Diagnostics.Warnings); n > 0 {
		fmt.Printf("  warnings: %d (rerun with --verbose for details)\n", n)
		for _, w := range res.Diagnostics.Warnings {
			logger.Debug("build warning", "warning", w.String())
		}
	}
	return nil
}

// loadTrailFile dispatches on file extension.
func loadTrailFile(path, region string, diag *types.Diagnostics) ([]types.Trail, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return ingest.LoadGeoJSON(path, region, diag)
	case ".gpx":
		return ingest.LoadGPX(path, region, diag)
	default:
		return nil, fmt.Errorf("%s: unsupported input format (want .geojson, .json or .gpx)", path)
	}
}
