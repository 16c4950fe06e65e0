// Package main is the entry point for the pibench CLI.
//
// pibench serves the Leibniz approximation of π over HTTP. It can also be
// embedded as a library; this CLI is the standalone binary.
//
// Usage:
//
//	pibench serve                      # Serve on :3000 with defaults
//	pibench serve -c config.yaml       # Serve with a config file
//	pibench validate -c config.yaml    # Validate configuration
//	pibench compute 1000               # Print one approximation and exit
//	pibench bench --iterations 1000    # Time requests against a running server
//	pibench version                    # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "pibench",
	Short: "Serve a Leibniz-series approximation of pi over HTTP",
	Long: `pibench answers every GET request with an approximation of pi computed
from the Leibniz series. The number of series terms comes from the
iterations query parameter (default 1).

Quick start:
  1. Run: pibench serve
  2. curl 'http://localhost:3000/?iterations=1000000'

Example config:
  port: 3000
  metrics_port: 9090
  max_iterations: 100000000
  log_level: info`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pibench binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pibench %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
