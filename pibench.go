package pibench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jpalmerr/pibench/internal/leibniz"
	"github.com/jpalmerr/pibench/internal/metrics"
	"github.com/jpalmerr/pibench/internal/server"
)

const (
	defaultPort              = 3000
	defaultReadHeaderTimeout = server.DefaultReadHeaderTimeout
	defaultShutdownTimeout   = server.DefaultShutdownTimeout
)

// Compute returns the Leibniz approximation of π after iterations terms.
// Zero or negative counts return 0.0.
func Compute(iterations int) float64 {
	return leibniz.Compute(iterations)
}

// FormatResult renders an approximation the way the HTTP endpoint does.
func FormatResult(v float64) string {
	return leibniz.Format(v)
}

// PiBench serves the pi endpoint and, optionally, Prometheus metrics.
//
// PiBench is created using [New] with functional options and started with
// [PiBench.Start]. The typical lifecycle is:
//
//	pb, err := pibench.New(pibench.WithPort(3000))
//	if err != nil {
//	    slog.Error("failed to create pibench", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	pb.Start(ctx) // blocks until context cancelled
type PiBench struct {
	host              string
	port              int
	metricsPort       int
	metricsEnabled    bool
	maxIterations     int
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger

	measures *metrics.Measures
	handler  http.Handler

	mu          sync.Mutex
	started     bool
	addr        net.Addr
	metricsAddr net.Addr
	ready       chan struct{}
}

// New creates a new [PiBench] instance with the given options.
//
// Defaults:
//   - Port: 3000
//   - Metrics: disabled
//   - Max iterations: unlimited
//   - Read header timeout: 5 seconds
//   - Shutdown timeout: 10 seconds
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*PiBench, error) {
	cfg := &pbConfig{
		port:              defaultPort,
		readHeaderTimeout: defaultReadHeaderTimeout,
		shutdownTimeout:   defaultShutdownTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.metricsEnabled && cfg.metricsPort != 0 && cfg.metricsPort == cfg.port {
		return nil, fmt.Errorf("metrics port must differ from port %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	measures := metrics.NewMeasures()
	pi := server.NewPiHandler(cfg.maxIterations, measures, logger)

	return &PiBench{
		host:              cfg.host,
		port:              cfg.port,
		metricsPort:       cfg.metricsPort,
		metricsEnabled:    cfg.metricsEnabled,
		maxIterations:     cfg.maxIterations,
		readHeaderTimeout: cfg.readHeaderTimeout,
		shutdownTimeout:   cfg.shutdownTimeout,
		logger:            logger,
		measures:          measures,
		handler:           measures.Instrument(server.RequestID(server.AccessLog(logger, pi))),
		ready:             make(chan struct{}),
	}, nil
}

// Handler returns the fully decorated pi handler, for embedding pibench in
// another server or for use with httptest.
func (pb *PiBench) Handler() http.Handler {
	return pb.handler
}

// Start binds the listeners and serves until ctx is cancelled.
//
// Start is a blocking call. Once every listener is bound, [PiBench.Ready]
// is closed and a "serving" record is logged. Cancelling ctx shuts both
// servers down gracefully, bounded by the shutdown timeout.
//
// Returns nil on graceful shutdown. Returns an error if a listener cannot be
// bound, for example because the port is already in use.
func (pb *PiBench) Start(ctx context.Context) error {
	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	pb.mu.Lock()
	if pb.started {
		pb.mu.Unlock()
		return errors.New("pibench already started")
	}
	pb.started = true
	pb.mu.Unlock()

	srvOpts := server.Options{
		ReadHeaderTimeout: pb.readHeaderTimeout,
		ShutdownTimeout:   pb.shutdownTimeout,
	}

	piServer := server.New("pi", pb.hostPort(pb.port), pb.handler, srvOpts, pb.logger)
	if err := piServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pi server: %w", err)
	}
	servers := []*server.Server{piServer}

	if pb.metricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", pb.measures.Handler())

		metricsServer := server.New("metrics", pb.hostPort(pb.metricsPort), mux, srvOpts, pb.logger)
		if err := metricsServer.Start(ctx); err != nil {
			pb.stop(servers)
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		servers = append(servers, metricsServer)

		pb.mu.Lock()
		pb.metricsAddr = metricsServer.Addr()
		pb.mu.Unlock()
		pb.logger.Info("metrics available", "url", fmt.Sprintf("http://%s/metrics", metricsServer.Addr()))
	}

	pb.mu.Lock()
	pb.addr = piServer.Addr()
	pb.mu.Unlock()
	close(pb.ready)

	pb.logger.Info("serving",
		"addr", piServer.Addr().String(),
		"max_iterations", pb.maxIterations,
	)

	<-ctx.Done()
	pb.stop(servers)
	pb.logger.Info("pibench stopped")
	return nil
}

// stop shuts servers down in reverse start order.
func (pb *PiBench) stop(servers []*server.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), pb.shutdownTimeout)
	defer cancel()

	for i := len(servers) - 1; i >= 0; i-- {
		if err := servers[i].Stop(shutdownCtx); err != nil {
			pb.logger.Warn("shutdown incomplete", "error", err)
		}
	}
}

func (pb *PiBench) hostPort(port int) string {
	return net.JoinHostPort(pb.host, strconv.Itoa(port))
}

// Ready returns a channel that is closed once [PiBench.Start] has bound its
// listeners. It is never closed if Start fails.
func (pb *PiBench) Ready() <-chan struct{} {
	return pb.ready
}

// Addr returns the bound address of the pi server, or nil before Ready.
func (pb *PiBench) Addr() net.Addr {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.addr
}

// MetricsAddr returns the bound address of the metrics server, or nil when
// metrics are disabled or not yet bound.
func (pb *PiBench) MetricsAddr() net.Addr {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.metricsAddr
}

// Port returns the configured pi port (0 means ephemeral).
func (pb *PiBench) Port() int {
	return pb.port
}

// MaxIterations returns the configured cap, 0 when unlimited.
func (pb *PiBench) MaxIterations() int {
	return pb.maxIterations
}
