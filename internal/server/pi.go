package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"github.com/jpalmerr/pibench/internal/leibniz"
)

const (
	// DefaultIterations is used when the request carries no iterations value.
	DefaultIterations = 1

	iterationsKey = "iterations"
)

var (
	// ErrInvalidIterations reports an iterations value that is not an integer.
	ErrInvalidIterations = errors.New("invalid iterations")

	// ErrTooManyIterations reports an iterations value above the configured maximum.
	ErrTooManyIterations = errors.New("iterations exceeds maximum")

	// ErrMalformedQuery reports a query string that cannot be decoded, such
	// as one with an invalid percent escape.
	ErrMalformedQuery = errors.New("malformed query")
)

// Params is the typed form of the pi query string.
type Params struct {
	// Iterations is nil when the query omits the parameter or leaves it blank.
	Iterations *int `schema:"iterations"`
}

// IterationCount returns the requested count, or [DefaultIterations].
func (p Params) IterationCount() int {
	if p.Iterations == nil {
		return DefaultIterations
	}
	return *p.Iterations
}

// IterationObserver receives the iteration count of every computation.
type IterationObserver interface {
	ObserveIterations(n int)
}

// PiHandler answers every request, whatever its path, with the Leibniz
// approximation of π for the requested number of iterations.
type PiHandler struct {
	decoder       *schema.Decoder
	maxIterations int
	observer      IterationObserver
	logger        *slog.Logger
}

// NewPiHandler creates a [PiHandler].
//
// maxIterations caps the accepted count; zero or negative disables the cap.
// observer may be nil.
func NewPiHandler(maxIterations int, observer IterationObserver, logger *slog.Logger) *PiHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	if logger == nil {
		logger = slog.Default()
	}
	return &PiHandler{
		decoder:       decoder,
		maxIterations: maxIterations,
		observer:      observer,
		logger:        logger,
	}
}

// ParseQuery decodes a raw query string, treating ';' as a pair separator
// exactly like '&'. [url.ParseQuery] would drop any pair containing ';'.
func ParseQuery(rawQuery string) (url.Values, error) {
	values, err := url.ParseQuery(strings.ReplaceAll(rawQuery, ";", "&"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}
	return values, nil
}

// ParseParams decodes query into [Params].
//
// Blank values are dropped, then only the first remaining value of a
// repeated key is considered. Keys match case-sensitively. The value may
// carry surrounding whitespace and single underscores between digits
// ("1_000"). Negative counts are accepted and yield 0.0 downstream.
func (h *PiHandler) ParseParams(query url.Values) (Params, error) {
	var params Params

	raw := ""
	for _, v := range query[iterationsKey] {
		if v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		return params, nil
	}

	value, ok := normalizeInteger(raw)
	if !ok {
		return Params{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidIterations, raw)
	}

	// the decoder folds key case and keeps the last value, so hand it only
	// the exact key with its first value
	if err := h.decoder.Decode(&params, map[string][]string{iterationsKey: {value}}); err != nil {
		return Params{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidIterations, raw)
	}

	if h.maxIterations > 0 && params.IterationCount() > h.maxIterations {
		return Params{}, fmt.Errorf("%w of %d", ErrTooManyIterations, h.maxIterations)
	}
	return params, nil
}

// ServeHTTP implements [http.Handler].
func (h *PiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := h.parseRequest(r)
	if err != nil {
		h.logger.Debug("rejected pi request",
			"query", r.URL.RawQuery,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.respond(w, r, params.IterationCount())
}

func (h *PiHandler) parseRequest(r *http.Request) (Params, error) {
	query, err := ParseQuery(r.URL.RawQuery)
	if err != nil {
		return Params{}, err
	}
	return h.ParseParams(query)
}

func (h *PiHandler) respond(w http.ResponseWriter, r *http.Request, iterations int) {
	if h.observer != nil {
		h.observer.ObserveIterations(iterations)
	}
	body := leibniz.Format(leibniz.Compute(iterations))

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		// the client went away mid-response
		h.logger.Debug("failed to write pi response",
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
}

// normalizeInteger trims surrounding whitespace and removes underscores that
// sit between two digits. It reports false for a value that is empty after
// trimming or that misplaces an underscore.
func normalizeInteger(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "_") {
		return s, true
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return strings.ReplaceAll(s, "_", ""), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
