package main

import (
	"fmt"

	"github.com/jpalmerr/pibench/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a pibench configuration file without starting the server.

This command expands environment variables, parses the YAML and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pibench validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	metrics := "disabled"
	if cfg.MetricsPort != 0 {
		metrics = fmt.Sprintf("port %d", cfg.MetricsPort)
	}
	maxIterations := "unlimited"
	if cfg.MaxIterations != 0 {
		maxIterations = fmt.Sprintf("%d", cfg.MaxIterations)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:           %d\n", cfg.Port)
	fmt.Fprintf(out, "  Metrics:        %s\n", metrics)
	fmt.Fprintf(out, "  Max iterations: %s\n", maxIterations)
	fmt.Fprintf(out, "  Log:            %s (%s)\n", cfg.LogLevel, cfg.LogFormat)

	return nil
}
