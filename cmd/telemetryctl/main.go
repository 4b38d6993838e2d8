// Package main provides the command-line front end for telemetry directories.
package main

import (
	"fmt"
	"os"
)

// Version info (set during build)
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
