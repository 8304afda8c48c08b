// Package sched runs the daily collection job on a cron spec and exposes
// health and metrics endpoints while the process stays resident.
package sched

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is the unit of work executed on every cron tick.
type Job func(ctx context.Context) error

// Config wires the scheduler.
type Config struct {
	// CronSpec is a standard five-field cron expression.
	CronSpec string
	// Addr is the listen address for /healthz and /metrics, e.g. ":9190".
	Addr string
	Job  Job
	// Registry, when set, scopes /metrics to that registry. Nil falls back
	// to the default registerer.
	Registry *prometheus.Registry
	Logger   *zap.Logger
	// JobTimeout bounds a single run. Zero means one hour.
	JobTimeout time.Duration
}

// Scheduler owns the cron loop and the sidecar HTTP server.
type Scheduler struct {
	cfg    Config
	cron   *cron.Cron
	logger *zap.Logger

	runsTotal   *prometheus.CounterVec
	lastRunUnix prometheus.Gauge

	mu      sync.Mutex
	last    runStatus
	running bool
}

type runStatus struct {
	At      time.Time `json:"at"`
	Outcome string    `json:"outcome"`
	Err     string    `json:"error,omitempty"`
}

// New validates the cron spec and registers scheduler metrics.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Job == nil {
		return nil, errors.New("sched: job is required")
	}
	if _, err := cron.ParseStandard(cfg.CronSpec); err != nil {
		return nil, fmt.Errorf("sched: parse cron spec %q: %w", cfg.CronSpec, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Hour
	}

	s := &Scheduler{
		cfg:    cfg,
		logger: cfg.Logger,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yrfi_sched_runs_total",
			Help: "Scheduled runs by outcome.",
		}, []string{"outcome"}),
		lastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yrfi_sched_last_run_timestamp_seconds",
			Help: "Unix time of the most recent scheduled run.",
		}),
	}

	reg := prometheus.Registerer(prometheus.DefaultRegisterer)
	if cfg.Registry != nil {
		reg = cfg.Registry
	}
	for _, c := range []prometheus.Collector{s.runsTotal, s.lastRunUnix} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("sched: register metrics: %w", err)
		}
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	return s, nil
}

// Run starts the cron loop and HTTP server and blocks until ctx is
// cancelled, then shuts both down. The returned error is nil on a clean
// shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.CronSpec, func() { s.runJob(ctx) }); err != nil {
		return fmt.Errorf("sched: add cron entry: %w", err)
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("cron_spec", s.cfg.CronSpec),
		zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		s.cron.Stop()
		return fmt.Errorf("sched: http server: %w", err)
	case <-ctx.Done():
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("timed out waiting for running job")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("sched: shutdown: %w", err)
	}
	return nil
}

// RunOnce executes the job immediately, outside the cron loop.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runJob(ctx)
}

func (s *Scheduler) runJob(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := s.cfg.Job(jobCtx)

	status := runStatus{At: start, Outcome: "ok"}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		status.Outcome = "error"
		status.Err = err.Error()
		s.logger.Error("scheduled run failed",
			zap.Duration("dur", time.Since(start)),
			zap.Error(err))
	} else {
		s.logger.Info("scheduled run finished",
			zap.Duration("dur", time.Since(start)))
	}

	s.runsTotal.WithLabelValues(outcome).Inc()
	s.lastRunUnix.Set(float64(start.Unix()))
	s.mu.Lock()
	s.last = status
	s.mu.Unlock()
	return err
}

// Handler returns the health and metrics router.
func (s *Scheduler) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Get("/healthz", s.healthz)
	r.Get("/metrics", s.metrics().ServeHTTP)
	return r
}

func (s *Scheduler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("dur", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Scheduler) metrics() http.Handler {
	if s.cfg.Registry != nil {
		return promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

func (s *Scheduler) healthz(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	body := map[string]any{"status": "ok"}
	if !last.At.IsZero() {
		body["last_run"] = last
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("healthz write failed", zap.Error(err))
	}
}
