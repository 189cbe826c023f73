// Package main provides the carthorse CLI: trail network builds, route
// recommendations, and GeoJSON import/export around a portable SQLite
// export database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
