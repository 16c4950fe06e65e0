package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/pibench"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is passed through unchanged; see [NewLogger] to build one from
// the log settings.
func BuildOptions(cfg *Config, logger *slog.Logger) []pibench.Option {
	opts := []pibench.Option{
		pibench.WithHost(cfg.Host),
		pibench.WithPort(cfg.Port),
		pibench.WithMaxIterations(cfg.MaxIterations),
		pibench.WithReadHeaderTimeout(cfg.ReadHeaderTimeout.Duration()),
		pibench.WithShutdownTimeout(cfg.ShutdownTimeout.Duration()),
	}

	if cfg.MetricsPort != 0 {
		opts = append(opts, pibench.WithMetricsPort(cfg.MetricsPort))
	}

	if logger != nil {
		opts = append(opts, pibench.WithLogger(logger))
	}

	return opts
}

// NewLogger creates a logger writing to w with the configured level and format.
func NewLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
}
