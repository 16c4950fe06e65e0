package main

import (
	"fmt"
	"strconv"

	"github.com/jpalmerr/pibench"
	"github.com/spf13/cobra"
)

// computeCmd prints approximations without starting a server.
var computeCmd = &cobra.Command{
	Use:   "compute ITERATIONS...",
	Short: "Print the approximation for one or more iteration counts",
	Long: `Print the Leibniz approximation of pi for each iteration count, one per
line, formatted exactly as the HTTP endpoint would return it.

Example:
  pibench compute 1          # 4.0
  pibench compute 10 1000
  pibench compute -- -5      # negative counts follow --`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompute,
}

func init() {
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	counts := make([]int, len(args))
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid iterations %q: not an integer", arg)
		}
		counts[i] = n
	}

	out := cmd.OutOrStdout()
	for _, n := range counts {
		fmt.Fprintln(out, pibench.FormatResult(pibench.Compute(n)))
	}
	return nil
}
