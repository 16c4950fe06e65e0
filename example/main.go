package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/pibench"
)

func main() {
	pb, err := pibench.New(
		pibench.WithPort(3000),
		pibench.WithMetricsPort(9090),
		pibench.WithMaxIterations(100_000_000),
	)
	if err != nil {
		slog.Error("failed to create pibench", "error", err)
		os.Exit(1)
	}

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- pb.Start(ctx)
	}()

	select {
	case <-pb.Ready():
	case err := <-errChan:
		slog.Error("pibench error", "error", err)
		os.Exit(1)
	}

	// query our own endpoint to show the series converging
	base := fmt.Sprintf("http://localhost:%d", pb.Addr().(*net.TCPAddr).Port)
	fmt.Println()
	fmt.Println("  iterations    approximation")
	for _, n := range []int{1, 2, 10, 1_000, 1_000_000} {
		resp, err := http.Get(fmt.Sprintf("%s/?iterations=%d", base, n))
		if err != nil {
			slog.Error("request failed", "error", err)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fmt.Printf("  %-12d  %s\n", n, body)
	}
	fmt.Println()
	fmt.Printf("  Try: curl '%s/?iterations=5000'\n", base)
	fmt.Println("  Metrics: http://localhost:9090/metrics")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	if err := <-errChan; err != nil {
		slog.Error("pibench error", "error", err)
		os.Exit(1)
	}
}
