package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pibench"
	"github.com/jpalmerr/pibench/config"
	"github.com/spf13/cobra"
)

// serveCmd starts the pi server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pi server",
	Long: `Start the pibench HTTP server.

The server will:
  - Load configuration from the optional YAML file
  - Apply command-line overrides
  - Answer GET requests on any path with the Leibniz approximation of pi
  - Serve Prometheus metrics when a metrics port is configured

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  pibench serve
  pibench serve --port 8080 --max-iterations 100000000
  pibench serve -c /etc/pibench/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("config", "c", "", "path to config file")
	flags.String("host", "", "interface to bind (default all)")
	flags.IntP("port", "p", config.DefaultPort, "port for the pi endpoint")
	flags.Int("metrics-port", 0, "port for Prometheus metrics (0 disables)")
	flags.Int("max-iterations", 0, "reject requests above this many iterations (0 disables)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
}

// loadServeConfig reads the config file, if any, and applies the flags the
// user actually set on top of it.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfg := config.Default()
	if configFile, _ := flags.GetString("config"); configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("metrics-port") {
		cfg.MetricsPort, _ = flags.GetInt("metrics-port")
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations, _ = flags.GetInt("max-iterations")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	pb, err := pibench.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create pibench: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- pb.Start(ctx)
	}()

	// wait for the listener before announcing it
	select {
	case <-pb.Ready():
		port := cfg.Port
		if addr, ok := pb.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving at port %d\n", port)
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with a margin over the
		// server's own timeout
		grace := cfg.ShutdownTimeout.Duration() + time.Second
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(grace):
			logger.Warn("shutdown timed out",
				"timeout", grace.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
