// Package main is the entry point for the gainhour CLI.
package main

import (
	"os"

	"github.com/gainhour/gainhour/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
