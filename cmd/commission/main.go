// commission queries the marketplace commission tables from the command line,
// using the same registry and data directory as the service.
package main

import (
	"os"

	"github.com/commission-finder/cmd/commission/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
