package pibench

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	pb, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if pb.Port() != 3000 {
		t.Errorf("Port() = %d, want 3000", pb.Port())
	}
	if pb.MaxIterations() != 0 {
		t.Errorf("MaxIterations() = %d, want 0", pb.MaxIterations())
	}
	if pb.metricsEnabled {
		t.Error("metrics enabled by default, want disabled")
	}
	if pb.readHeaderTimeout != 5*time.Second {
		t.Errorf("readHeaderTimeout = %v, want 5s", pb.readHeaderTimeout)
	}
	if pb.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s", pb.shutdownTimeout)
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{"port negative", WithPort(-1), "port must be between"},
		{"port too high", WithPort(65536), "port must be between"},
		{"metrics port too high", WithMetricsPort(70000), "metrics port must be between"},
		{"max iterations negative", WithMaxIterations(-1), "cannot be negative"},
		{"read header timeout zero", WithReadHeaderTimeout(0), "must be positive"},
		{"shutdown timeout negative", WithShutdownTimeout(-time.Second), "must be positive"},
		{"nil logger", WithLogger(nil), "logger cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestOptions_Valid(t *testing.T) {
	pb, err := New(
		WithHost("127.0.0.1"),
		WithPort(0),
		WithMetricsPort(9090),
		WithMaxIterations(1000),
		WithReadHeaderTimeout(time.Second),
		WithShutdownTimeout(2*time.Second),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if pb.host != "127.0.0.1" {
		t.Errorf("host = %q, want 127.0.0.1", pb.host)
	}
	if pb.Port() != 0 {
		t.Errorf("Port() = %d, want 0", pb.Port())
	}
	if !pb.metricsEnabled || pb.metricsPort != 9090 {
		t.Errorf("metrics = (%v, %d), want (true, 9090)", pb.metricsEnabled, pb.metricsPort)
	}
	if pb.MaxIterations() != 1000 {
		t.Errorf("MaxIterations() = %d, want 1000", pb.MaxIterations())
	}
	if pb.shutdownTimeout != 2*time.Second {
		t.Errorf("shutdownTimeout = %v, want 2s", pb.shutdownTimeout)
	}
}

func TestNew_MetricsPortCollision(t *testing.T) {
	_, err := New(WithPort(8080), WithMetricsPort(8080))
	if err == nil {
		t.Fatal("New() expected error for equal ports, got nil")
	}
	if !strings.Contains(err.Error(), "must differ") {
		t.Errorf("New() error = %v, want error containing 'must differ'", err)
	}
}

func TestWithLogger_Used(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pb, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if pb.logger != logger {
		t.Error("custom logger not stored")
	}
}
