// Package main provides the overpassql command-line interface.
package main

import (
	"os"

	"github.com/leapstack-labs/overpassql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
