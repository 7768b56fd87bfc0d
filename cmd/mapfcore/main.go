// Command mapfcore runs and evaluates multi-agent pathfinding
// scenarios against the planners in internal/engine.
package main

import (
	"fmt"
	"os"

	"github.com/baumann-freiburg/mapf-core/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
