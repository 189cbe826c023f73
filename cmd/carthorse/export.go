// Export command: writes GeoJSON from an export database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/carthorse/internal/sqlite"
)

var (
	exportDB       string
	exportOut      string
	exportRegion   string
	exportSimplify float64
)

var exportCmd = &cobra.Command{
	Use:   "export {routes|trails}",
	Short: "Export routes or trails from a database as GeoJSON",
	Long: `Export writes a GeoJSON FeatureCollection from an export database.

"routes" exports route recommendations best-first with their scores and
shapes in the feature properties. "trails" exports the processed trail
segments of a region with elevations as third ordinates.

Example:
  carthorse export routes --db boulder.db --out routes.geojson
  carthorse export trails --db boulder.db --region boulder --simplify 2.0`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"routes", "trails"},
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "export database path (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output GeoJSON path (default: <what>.geojson)")
	exportCmd.Flags().StringVar(&exportRegion, "region", "", "restrict trail export to a region")
	exportCmd.Flags().Float64Var(&exportSimplify, "simplify", -1, "geometry simplification tolerance in meters (default: from config)")
	_ = exportCmd.MarkFlagRequired("db")
}

func runExport(cmd *cobra.Command, args []string) error {
	what := args[0]
	if what != "routes" && what != "trails" {
		return fmt.Errorf("unknown export target %q (want routes or trails)", what)
	}
	if _, err := os.Stat(exportDB); err != nil {
		return fmt.Errorf("database %s: %w", exportDB, err)
	}

	tol := exportSimplify
	if tol < 0 {
		cfg, err := engineConfig(cliConfig)
		if err != nil {
			return err
		}
		tol = cfg.SimplifyToleranceM
	}

	out := exportOut
	if out == "" {
		out = what + ".geojson"
	}

	db := sqlite.NewBackend()
	if err := db.Attach(exportDB); err != nil {
		return err
	}
	defer db.Detach()

	var n int
	var err error
	switch what {
	case "routes":
		n, err = db.ExportRoutesGeoJSON(out, tol)
	case "trails":
		n, err = db.ExportTrailsGeoJSON(out, exportRegion, tol)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d %s to %s\n", n, what, out)
	return nil
}
