package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jpalmerr/pibench/internal/leibniz"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingObserver records every observed iteration count.
type countingObserver struct {
	seen []int
}

func (c *countingObserver) ObserveIterations(n int) {
	c.seen = append(c.seen, n)
}

func servePi(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPiHandler_Responses(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"one iteration", "/?iterations=1", "4.0"},
		{"no query string", "/", leibniz.Format(leibniz.Compute(1))},
		{"zero iterations", "/?iterations=0", "0.0"},
		{"negative iterations", "/?iterations=-5", "0.0"},
		{"two iterations", "/?iterations=2", leibniz.Format(leibniz.Compute(2))},
		{"any path", "/some/other/path?iterations=1", "4.0"},
		{"first value wins", "/?iterations=1&iterations=2", "4.0"},
		{"blank value is absent", "/?iterations=", "4.0"},
		{"blank values are skipped", "/?iterations=&iterations=0", "0.0"},
		{"unknown keys ignored", "/?foo=bar&iterations=1", "4.0"},
		{"key is case-sensitive", "/?ITERATIONS=abc", "4.0"},
		{"explicit plus sign", "/?iterations=%2B1", "4.0"},
		{"semicolon after iterations", "/?iterations=3;x=1", leibniz.Format(leibniz.Compute(3))},
		{"semicolon before iterations", "/?x=1;iterations=3", leibniz.Format(leibniz.Compute(3))},
		{"escaped semicolon is not a separator", "/?x=a%3Biterations=3&iterations=2", leibniz.Format(leibniz.Compute(2))},
		{"surrounding whitespace", "/?iterations=%205%20", leibniz.Format(leibniz.Compute(5))},
		{"plus decodes to a space", "/?iterations=+5", leibniz.Format(leibniz.Compute(5))},
		{"underscore digit grouping", "/?iterations=1_0", leibniz.Format(leibniz.Compute(10))},
		{"negative with grouping", "/?iterations=-1_0", "0.0"},
	}

	h := NewPiHandler(0, nil, testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := servePi(t, h, http.MethodGet, tt.target)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
				t.Errorf("Content-Type = %q, want %q", ct, "text/plain")
			}
			if got := rec.Body.String(); got != tt.body {
				t.Errorf("body = %q, want %q", got, tt.body)
			}
		})
	}
}

func TestPiHandler_InvalidIterations(t *testing.T) {
	targets := []string{
		"/?iterations=abc",
		"/?iterations=1.5",
		"/?iterations=99999999999999999999999",
		"/?iterations=abc&iterations=1",
		"/?iterations=%20",
		"/?iterations=_10",
		"/?iterations=10_",
		"/?iterations=1__0",
		"/?iterations=1_%200",
	}

	h := NewPiHandler(0, nil, testLogger())
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := servePi(t, h, http.MethodGet, target)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !strings.Contains(rec.Body.String(), "invalid iterations") {
				t.Errorf("body = %q, want it to mention invalid iterations", rec.Body.String())
			}
		})
	}
}

func TestPiHandler_MalformedQuery(t *testing.T) {
	h := NewPiHandler(0, nil, testLogger())

	rec := servePi(t, h, http.MethodGet, "/?iterations=%zz")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "malformed query") {
		t.Errorf("body = %q, want it to mention malformed query", rec.Body.String())
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"iterations=3;x=1", []string{"3"}},
		{"x=1;iterations=3", []string{"3"}},
		{"iterations=1&iterations=2;iterations=3", []string{"1", "2", "3"}},
		{"iterations", []string{""}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			values, err := ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("ParseQuery(%q) error = %v", tt.raw, err)
			}
			got := values[iterationsKey]
			if len(got) != len(tt.want) {
				t.Fatalf("iterations = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("iterations[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := ParseQuery("iterations=%zz"); !errors.Is(err, ErrMalformedQuery) {
		t.Errorf("ParseQuery(bad escape) error = %v, want ErrMalformedQuery", err)
	}
}

// brokenWriter fails every body write, as a connection reset by the client
// would.
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(int)           {}
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset by peer") }

func TestPiHandler_WriteFailureIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := NewPiHandler(0, nil, logger)

	h.ServeHTTP(&brokenWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/?iterations=1", nil))

	if buf.Len() != 0 {
		t.Errorf("write failure logged above debug level: %s", buf.String())
	}

	buf.Reset()
	debug := NewPiHandler(0, nil, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	debug.ServeHTTP(&brokenWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/?iterations=1", nil))

	if !strings.Contains(buf.String(), "failed to write pi response") {
		t.Errorf("debug log missing write failure, got: %s", buf.String())
	}
}

func TestPiHandler_MaxIterations(t *testing.T) {
	h := NewPiHandler(10, nil, testLogger())

	rec := servePi(t, h, http.MethodGet, "/?iterations=10")
	if rec.Code != http.StatusOK {
		t.Errorf("iterations at the cap: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = servePi(t, h, http.MethodGet, "/?iterations=11")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("iterations above the cap: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "exceeds maximum of 10") {
		t.Errorf("body = %q, want it to name the maximum", rec.Body.String())
	}
}

func TestPiHandler_MethodNotAllowed(t *testing.T) {
	h := NewPiHandler(0, nil, testLogger())

	rec := servePi(t, h, http.MethodPost, "/?iterations=1")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow = %q, want %q", allow, "GET, HEAD")
	}
}

func TestPiHandler_ObservesIterations(t *testing.T) {
	obs := &countingObserver{}
	h := NewPiHandler(0, obs, testLogger())

	servePi(t, h, http.MethodGet, "/?iterations=7")
	servePi(t, h, http.MethodGet, "/")
	servePi(t, h, http.MethodGet, "/?iterations=abc")

	if len(obs.seen) != 2 || obs.seen[0] != 7 || obs.seen[1] != DefaultIterations {
		t.Errorf("observed = %v, want [7 %d]", obs.seen, DefaultIterations)
	}
}

func TestParseParams(t *testing.T) {
	h := NewPiHandler(0, nil, testLogger())

	params, err := h.ParseParams(url.Values{})
	if err != nil {
		t.Fatalf("ParseParams(empty) error = %v", err)
	}
	if params.Iterations != nil {
		t.Errorf("Iterations = %v, want nil for absent key", *params.Iterations)
	}
	if params.IterationCount() != DefaultIterations {
		t.Errorf("IterationCount() = %d, want %d", params.IterationCount(), DefaultIterations)
	}

	params, err = h.ParseParams(url.Values{"iterations": {"42", "7"}})
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if params.IterationCount() != 42 {
		t.Errorf("IterationCount() = %d, want 42", params.IterationCount())
	}

	params, err = h.ParseParams(url.Values{"iterations": {" 1_000 "}})
	if err != nil {
		t.Fatalf("ParseParams(grouped) error = %v", err)
	}
	if params.IterationCount() != 1000 {
		t.Errorf("IterationCount() = %d, want 1000", params.IterationCount())
	}

	_, err = h.ParseParams(url.Values{"iterations": {"abc"}})
	if !errors.Is(err, ErrInvalidIterations) {
		t.Errorf("ParseParams(abc) error = %v, want ErrInvalidIterations", err)
	}
}
