// Package main is the entry point for the categorical CLI.
package main

import (
	"os"

	"categorical/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
