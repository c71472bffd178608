// Package main is the tzconv command-line tool.
package main

import (
	"os"

	"github.com/codeGROOVE-dev/tzconv/cmd/tzconv/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
