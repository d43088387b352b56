// Package main is the entry point for the Plantline CLI.
// Plantline is a manufacturing execution core: recipes and products become
// versioned snapshots, snapshots expand into task chains, and a daemon tracks
// every task through its lifecycle.
package main

import (
	"os"

	"github.com/plantline/plantline/internal/adapters/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
