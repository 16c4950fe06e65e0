package pibench

import (
	"errors"
	"log/slog"
	"time"
)

// pbConfig holds mutable state during PiBench construction.
type pbConfig struct {
	host              string
	port              int
	metricsPort       int
	metricsEnabled    bool
	maxIterations     int
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
}

// Option is a function that configures a [PiBench] instance during construction.
//
// Options return an error if validation fails, which [New] passes back to
// the caller.
//
// Built-in options: [WithHost], [WithPort], [WithMetricsPort],
// [WithMaxIterations], [WithReadHeaderTimeout], [WithShutdownTimeout],
// [WithLogger].
type Option func(*pbConfig) error

// WithHost sets the interface the pi server binds to.
//
// Defaults to "" (all interfaces). Tests typically pass "127.0.0.1".
func WithHost(host string) Option {
	return func(cfg *pbConfig) error {
		cfg.host = host
		return nil
	}
}

// WithPort sets the TCP port for the pi endpoint.
//
// Defaults to 3000. Port 0 asks the kernel for an ephemeral port; read the
// result from [PiBench.Addr] once [PiBench.Ready] is closed.
//
// Returns an error if the port is outside the range 0-65535.
func WithPort(port int) Option {
	return func(cfg *pbConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMetricsPort enables the Prometheus listener on the given port.
//
// The listener serves GET /metrics only and binds to the same host as the pi
// server. Metrics are not served unless this option is given.
//
// Example:
//
//	pb, err := pibench.New(
//	    pibench.WithPort(3000),
//	    pibench.WithMetricsPort(9090),
//	)
//
// Returns an error if the port is outside the range 0-65535.
func WithMetricsPort(port int) Option {
	return func(cfg *pbConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("metrics port must be between 0 and 65535")
		}
		cfg.metricsPort = port
		cfg.metricsEnabled = true
		return nil
	}
}

// WithMaxIterations caps the iterations a single request may ask for.
// Requests above the cap receive 400 Bad Request. Zero disables the cap,
// which is the default.
//
// Returns an error if n is negative.
func WithMaxIterations(n int) Option {
	return func(cfg *pbConfig) error {
		if n < 0 {
			return errors.New("max iterations cannot be negative")
		}
		cfg.maxIterations = n
		return nil
	}
}

// WithReadHeaderTimeout bounds how long clients may take to send request
// headers. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("read header timeout must be positive")
		}
		cfg.readHeaderTimeout = d
		return nil
	}
}

// WithShutdownTimeout bounds the graceful shutdown that follows context
// cancellation. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("shutdown timeout must be positive")
		}
		cfg.shutdownTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the PiBench instance.
//
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	pb, err := pibench.New(pibench.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}
