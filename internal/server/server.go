// Package server exposes the C++Lite pipeline as an HTTP service. The
// handler is transport agnostic; HTTP3Server serves it over QUIC.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cpplite-lang/cpplite/internal/cli"
	"github.com/cpplite-lang/cpplite/internal/driver"
	cperrors "github.com/cpplite-lang/cpplite/internal/errors"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-Id"

// requestSource names the program text of a request in diagnostics.
const requestSource = "request.cpl"

// Options configures a Service. Zero limits take the defaults below, so
// every request is bounded in time and output.
type Options struct {
	Logger     *cli.Logger
	MaxBody    int64
	MaxDepth   int
	MaxTimeout time.Duration
	MaxOutput  int64
	Registry   *prometheus.Registry
}

// Request limits used when Options leaves them unset.
const (
	DefaultMaxBody    = 1 << 20
	DefaultMaxTimeout = 10 * time.Second
	DefaultMaxOutput  = 1 << 20
)

// Service answers run and check requests.
type Service struct {
	opts    Options
	mux     *http.ServeMux
	metrics *metrics
	newID   func() string
}

// RunRequest is the body of POST /run and POST /check.
type RunRequest struct {
	Source    string `json:"source"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
}

// RunResponse is the body of a successful POST /run.
type RunResponse struct {
	ID      string           `json:"id"`
	Output  string           `json:"output"`
	Globals []driver.Binding `json:"globals"`
}

// CheckResponse is the body of a successful POST /check.
type CheckResponse struct {
	ID string `json:"id"`
	OK bool   `json:"ok"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ErrorResponse is returned with a non-2xx status.
type ErrorResponse struct {
	ID    string    `json:"id"`
	Error ErrorBody `json:"error"`
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpplite",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Requests handled, by route and outcome",
		}, []string{"route", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cpplite",
			Subsystem: "server",
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent in the pipeline per request",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// New creates a service. Each service owns its metrics registry unless
// one is supplied.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = cli.NewLoggerTo(io.Discard, false, false)
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.MaxTimeout <= 0 {
		opts.MaxTimeout = DefaultMaxTimeout
	}
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = DefaultMaxOutput
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Service{
		opts:    opts,
		mux:     http.NewServeMux(),
		metrics: newMetrics(opts.Registry),
		newID:   func() string { return uuid.New().String() },
	}

	s.mux.HandleFunc("POST /run", s.handleRun)
	s.mux.HandleFunc("POST /check", s.handleCheck)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Service) handleRun(w http.ResponseWriter, r *http.Request) {
	id, req, ok := s.begin(w, r, "run")
	if !ok {
		return
	}

	ctx, cancel := s.deadline(r.Context(), req)
	defer cancel()

	start := time.Now()
	d := driver.New(driver.Options{
		Logger:    s.opts.Logger,
		MaxDepth:  s.opts.MaxDepth,
		MaxOutput: s.opts.MaxOutput,
	})
	res, err := d.Run(ctx, driver.Source{Filename: requestSource, Content: req.Source})
	s.metrics.duration.WithLabelValues("run").Observe(time.Since(start).Seconds())

	if err != nil {
		s.fail(w, id, "run", err)
		return
	}

	s.opts.Logger.Info("%s run ok in %s", id, time.Since(start).Round(time.Microsecond))
	s.metrics.requests.WithLabelValues("run", "ok").Inc()
	writeJSON(w, http.StatusOK, RunResponse{ID: id, Output: res.Output, Globals: res.Bindings()})
}

func (s *Service) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, req, ok := s.begin(w, r, "check")
	if !ok {
		return
	}

	start := time.Now()
	d := driver.New(driver.Options{Logger: s.opts.Logger})
	_, err := d.Check(driver.Source{Filename: requestSource, Content: req.Source})
	s.metrics.duration.WithLabelValues("check").Observe(time.Since(start).Seconds())

	if err != nil {
		s.fail(w, id, "check", err)
		return
	}

	s.opts.Logger.Info("%s check ok", id)
	s.metrics.requests.WithLabelValues("check", "ok").Inc()
	writeJSON(w, http.StatusOK, CheckResponse{ID: id, OK: true})
}

// begin assigns the request id and decodes the body. On failure the
// response has already been written.
func (s *Service) begin(w http.ResponseWriter, r *http.Request, route string) (string, RunRequest, bool) {
	id := s.newID()
	w.Header().Set(RequestIDHeader, id)
	s.opts.Logger.Info("%s %s %s from %s", id, r.Method, r.URL.Path, r.RemoteAddr)

	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		status, code := http.StatusBadRequest, "BAD_REQUEST"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, code = http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE"
		}
		s.opts.Logger.Warn("%s rejected: %v", id, err)
		s.metrics.requests.WithLabelValues(route, "rejected").Inc()
		writeJSON(w, status, ErrorResponse{ID: id, Error: ErrorBody{
			Category: "REQUEST",
			Code:     code,
			Message:  err.Error(),
		}})
		return id, req, false
	}
	if req.TimeoutMS < 0 {
		s.metrics.requests.WithLabelValues(route, "rejected").Inc()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{ID: id, Error: ErrorBody{
			Category: "REQUEST",
			Code:     "BAD_REQUEST",
			Message:  fmt.Sprintf("timeout_ms must not be negative, got %d", req.TimeoutMS),
		}})
		return id, req, false
	}

	return id, req, true
}

// deadline applies the requested timeout, capped by MaxTimeout.
func (s *Service) deadline(ctx context.Context, req RunRequest) (context.Context, context.CancelFunc) {
	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	if timeout == 0 || timeout > s.opts.MaxTimeout {
		timeout = s.opts.MaxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *Service) fail(w http.ResponseWriter, id, route string, err error) {
	category, code := cperrors.Classify(err)

	s.opts.Logger.Info("%s %s failed: %s", id, route, code)
	s.metrics.requests.WithLabelValues(route, string(category)).Inc()

	status := http.StatusUnprocessableEntity
	if category == cperrors.CategorySystem {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ErrorResponse{ID: id, Error: ErrorBody{
		Category: string(category),
		Code:     code,
		Message:  err.Error(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
