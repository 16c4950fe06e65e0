package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jpalmerr/pibench/config"
	"github.com/jpalmerr/pibench/internal/bench"
	"github.com/spf13/cobra"
)

// benchCmd times a running pi server.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time repeated requests against a pi server",
	Long: `Send GET requests to a running pi server and report the median latency.

Warmup requests run first and are not recorded. Each measured round prints
its latency and response body. A failed request (transport error or non-200
status) is retried after --retry-delay; the run aborts once more than
--max-failures requests have failed.

Example:
  pibench bench --iterations 100000000
  pibench bench --url http://localhost:8080/ --warmup 2 --rounds 10`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	flags := benchCmd.Flags()
	flags.String("url", fmt.Sprintf("http://localhost:%d/", config.DefaultPort), "pi endpoint to request")
	flags.Int("iterations", 0, "set the iterations query parameter (0 keeps the url as given)")
	flags.Int("warmup", 1, "unrecorded warmup requests")
	flags.Int("rounds", 5, "measured requests")
	flags.Int("max-failures", bench.DefaultMaxFailures, "failed requests tolerated before giving up")
	flags.Duration("retry-delay", bench.DefaultRetryDelay, "pause after a failed request")
	flags.Duration("cooldown", 0, "pause between measured requests")
	flags.Duration("timeout", bench.DefaultTimeout, "timeout for each request")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
}

func loadBenchOptions(cmd *cobra.Command) (bench.Options, error) {
	flags := cmd.Flags()

	target, _ := flags.GetString("url")
	if iterations, _ := flags.GetInt("iterations"); iterations != 0 {
		u, err := url.Parse(target)
		if err != nil {
			return bench.Options{}, fmt.Errorf("invalid url %q: %w", target, err)
		}
		q := u.Query()
		q.Set("iterations", strconv.Itoa(iterations))
		u.RawQuery = q.Encode()
		target = u.String()
	}

	opts := bench.Options{URL: target}
	opts.Warmup, _ = flags.GetInt("warmup")
	opts.Rounds, _ = flags.GetInt("rounds")
	opts.MaxFailures, _ = flags.GetInt("max-failures")
	opts.RetryDelay, _ = flags.GetDuration("retry-delay")
	opts.Cooldown, _ = flags.GetDuration("cooldown")
	opts.Timeout, _ = flags.GetDuration("timeout")

	if err := opts.Validate(); err != nil {
		return bench.Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	opts, err := loadBenchOptions(cmd)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	logger, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	runner, err := bench.NewRunner(opts, logger, func(s bench.Sample) {
		if s.Warmup {
			fmt.Fprintf(out, " -> [Warmup]: t = %s, result = %s\n", s.Latency, s.Body)
			return
		}
		fmt.Fprintf(out, " -> [Run #%d]: t = %s, result = %s\n", s.Run, s.Latency, s.Body)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Benchmarking %s (%d warmup, %d rounds)\n", opts.URL, opts.Warmup, opts.Rounds)
	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	fmt.Fprintf(out, "Median: %s over %d rounds (%d failed requests)\n", result.Median, len(result.Latencies), result.Failures)
	return nil
}
