// Routes command: lists route recommendations from an export database.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/carthorse/internal/sqlite"
)

var (
	routesDB   string
	routesJSON bool
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List route recommendations, best score first",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

func init() {
	routesCmd.Flags().StringVar(&routesDB, "db", "", "export database path (required)")
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "output as JSON")
	_ = routesCmd.MarkFlagRequired("db")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(routesDB); err != nil {
		return fmt.Errorf("database %s: %w", routesDB, err)
	}

	db := sqlite.NewBackend()
	if err := db.Attach(routesDB); err != nil {
		return err
	}
	defer db.Detach()

	routes, err := db.ListRoutes()
	if err != nil {
		return err
	}

	if routesJSON {
		out, err := json.MarshalIndent(routes, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal routes: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(routes) == 0 {
		fmt.Println("no route recommendations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSHAPE\tLENGTH\tGAIN\tTRAILS\tNAME")
	for _, r := range routes {
		fmt.Fprintf(w, "%.2f\t%s\t%.1f km\t%.0f m\t%d\t%s\n",
			r.Score, r.Shape, r.LengthKm, r.ElevationGain, r.TrailCount, r.Name)
	}
	return w.Flush()
}
