// Validate command: checks GeoJSON inputs before a build.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/carthorse/internal/ingest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate GeoJSON trail files",
	Long: `Validate parses GeoJSON FeatureCollections and reports structural
problems that would degrade a build: degenerate lines, coordinates outside
WGS84 bounds, and missing geometries. Exits non-zero if any file has issues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := false
	for _, path := range args {
		report, err := ingest.ValidateGeoJSON(path)
		if err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}

		fmt.Printf("%s: %d features\n", path, report.FeatureCount)
		for _, gt := range sortedKeys(report.GeometryTypes) {
			fmt.Printf("  %s: %d\n", gt, report.GeometryTypes[gt])
		}
		if report.Valid() {
			fmt.Println("  ok")
			continue
		}

		failed = true
		fmt.Printf("  %d issues:\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Printf("    - %s\n", issue)
		}
	}

	if failed {
		os.Exit(exitUserError)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
