package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"
)

const (
	// DefaultMaxFailures is how many failed requests a run tolerates.
	DefaultMaxFailures = 10

	// DefaultRetryDelay separates a failed request from its retry.
	DefaultRetryDelay = time.Second

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
)

// ErrTooManyFailures is returned once more than MaxFailures requests failed.
var ErrTooManyFailures = errors.New("too many failed requests")

// Options configures a [Runner].
type Options struct {
	// URL is requested with GET on every round.
	URL string

	// Warmup rounds run first and are not recorded.
	Warmup int

	// Rounds is the number of measured requests. Must be at least 1.
	Rounds int

	// MaxFailures is the number of failed requests tolerated across the
	// whole run. The next failure aborts it.
	MaxFailures int

	// RetryDelay is slept after each failure.
	RetryDelay time.Duration

	// Cooldown is slept between measured rounds.
	Cooldown time.Duration

	// Timeout bounds each request.
	Timeout time.Duration
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.URL == "" {
		return errors.New("url is required")
	}
	if o.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", o.Rounds)
	}
	if o.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", o.Warmup)
	}
	if o.MaxFailures < 0 {
		return fmt.Errorf("max failures must not be negative, got %d", o.MaxFailures)
	}
	if o.RetryDelay < 0 || o.Cooldown < 0 {
		return errors.New("delays must not be negative")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	return nil
}

// Sample describes one successful request.
type Sample struct {
	// Warmup is true for requests that are not recorded.
	Warmup bool

	// Run is the 1-based index of a measured round, 0 during warmup.
	Run int

	Latency time.Duration

	// Body is the response body, the approximation for a pi endpoint.
	Body string
}

// Result summarises a completed run.
type Result struct {
	// Latencies holds the measured rounds in run order.
	Latencies []time.Duration

	// Median is the median of Latencies.
	Median time.Duration

	// Failures counts the failed requests that were retried.
	Failures int
}

// Runner times repeated requests against one URL.
type Runner struct {
	opts     Options
	client   *Client
	logger   *slog.Logger
	onSample func(Sample)
}

// NewRunner creates a [Runner]. onSample, when non-nil, is called after
// every successful request.
func NewRunner(opts Options, logger *slog.Logger, onSample func(Sample)) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		opts:     opts,
		client:   NewClient(),
		logger:   logger,
		onSample: onSample,
	}, nil
}

// Run performs the warmup and measured rounds.
//
// A request fails on a transport error or a non-200 status. Failures are
// retried after RetryDelay; once they exceed MaxFailures Run returns an error
// wrapping [ErrTooManyFailures]. Cancelling ctx stops the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	defer r.client.Close()

	var (
		latencies []time.Duration
		failures  int
		warmed    int
	)

	for len(latencies) < r.opts.Rounds {
		if err := ctx.Err(); err != nil {
			return Result{Failures: failures}, err
		}

		resp := r.client.Fetch(ctx, r.opts.URL, r.opts.Timeout)
		if err := checkResponse(resp); err != nil {
			failures++
			r.logger.Warn("benchmark request failed",
				"url", r.opts.URL,
				"failures", failures,
				"error", err,
			)
			if failures > r.opts.MaxFailures {
				return Result{Failures: failures}, fmt.Errorf("%w (%d): %w", ErrTooManyFailures, failures, err)
			}
			if err := sleep(ctx, r.opts.RetryDelay); err != nil {
				return Result{Failures: failures}, err
			}
			continue
		}

		if warmed < r.opts.Warmup {
			warmed++
			r.report(Sample{Warmup: true, Latency: resp.Latency, Body: string(resp.Body)})
			continue
		}

		latencies = append(latencies, resp.Latency)
		r.report(Sample{Run: len(latencies), Latency: resp.Latency, Body: string(resp.Body)})

		if len(latencies) < r.opts.Rounds {
			if err := sleep(ctx, r.opts.Cooldown); err != nil {
				return Result{Failures: failures}, err
			}
		}
	}

	return Result{
		Latencies: latencies,
		Median:    Median(latencies),
		Failures:  failures,
	}, nil
}

func (r *Runner) report(s Sample) {
	if r.onSample != nil {
		r.onSample(s)
	}
}

func checkResponse(resp Response) error {
	if resp.Error != nil {
		return resp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Median returns the middle value of latencies after sorting. For an even
// count it is the upper of the two middle values. Zero for an empty slice.
func Median(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}
