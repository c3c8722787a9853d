// Package main is the entry point for the graphpoll CLI.
package main

import (
	"os"

	"github.com/oculair/graphpoll/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
