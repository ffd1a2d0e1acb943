// Package main provides the entry point for the apisearch CLI.
package main

import (
	"os"

	"github.com/devapihub/apisearch/cmd/apisearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
