// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

// Package observability serves Prometheus metrics and health probes for the
// identity service.
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// CheckTimeout bounds each dependency probe run by the readiness endpoint.
const CheckTimeout = 2 * time.Second

// Check probes one dependency. A nil error means the dependency is usable.
type Check func(ctx context.Context) error

// Checks maps dependency names (e.g. "database") to their probes.
type Checks map[string]Check

// Registration adds collectors to the server's registry.
type Registration func(prometheus.Registerer)

// BuildInfo returns a Registration exposing medusa_build_info with the given
// version labels and a constant value of 1.
func BuildInfo(version, commit string) Registration {
	return func(reg prometheus.Registerer) {
		info := prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "medusa_build_info",
			Help:        "Build information of the running medusa binary",
			ConstLabels: prometheus.Labels{"version": version, "commit": commit},
		})
		info.Set(1)
		reg.MustRegister(info)
	}
}

// ReadinessReport is the JSON body of /healthz/readiness.
type ReadinessReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Readiness states.
const (
	StatusReady       = "ready"
	StatusNotReady    = "not ready"
	CheckOK           = "ok"
	CheckUnavailable  = "unavailable"
	readinessMimeType = "application/json"
)

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr         string
	listener     net.Listener
	httpServer   *http.Server
	registry     *prometheus.Registry
	checks       Checks
	dependencyUp *prometheus.GaugeVec
	running      atomic.Bool
}

// NewServer creates an observability server listening on addr ("host:port").
// Readiness succeeds only when every check passes; no checks means always
// ready. Each registration is applied to the server's private registry.
func NewServer(addr string, checks Checks, registrations ...Registration) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dependencyUp := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medusa_dependency_up",
			Help: "Result of the last readiness probe per dependency (1 = reachable)",
		},
		[]string{"dependency"},
	)
	registry.MustRegister(dependencyUp)

	for _, register := range registrations {
		register(registry)
	}

	return &Server{
		addr:         addr,
		registry:     registry,
		checks:       checks,
		dependencyUp: dependencyUp,
	}
}

// Registry returns the registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Start begins serving. The returned channel receives a serve error if the
// HTTP server fails after starting and is closed once it stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may have disconnected
	w.Write([]byte("ok\n"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	report := s.Readiness(r.Context())

	status := http.StatusOK
	if report.Status != StatusReady {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", readinessMimeType)
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(report)
}

// Readiness runs every check sequentially and records the outcome in
// medusa_dependency_up. Check errors are logged, never returned to callers
// of the HTTP endpoint.
func (s *Server) Readiness(ctx context.Context) ReadinessReport {
	report := ReadinessReport{Status: StatusReady}
	if len(s.checks) == 0 {
		return report
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	slices.Sort(names)

	report.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := s.runCheck(ctx, s.checks[name]); err != nil {
			slog.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			report.Checks[name] = CheckUnavailable
			report.Status = StatusNotReady
			s.dependencyUp.WithLabelValues(name).Set(0)
			continue
		}
		report.Checks[name] = CheckOK
		s.dependencyUp.WithLabelValues(name).Set(1)
	}
	return report
}

func (s *Server) runCheck(ctx context.Context, check Check) error {
	if check == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()
	return check(ctx)
}
