package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the overall health state.
type HealthStatus string

const (
	// HealthStatusHealthy means every check passed.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded means output is still served but entropy
	// gathering is failing more often than it should.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusUnhealthy means a check failed or a caller has been
	// handed an error instead of random bytes.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// MaxEntropyFailureRate is the share of failed gathers, across all reseed
// attempts, above which a process is reported degraded.
const MaxEntropyFailureRate = 0.01

// CheckFunc performs one health check and returns nil when healthy.
type CheckFunc func() error

// HealthCheck evaluates registered checks together with the collector's
// failure counters.
type HealthCheck struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	collector *Collector
	startTime time.Time
	version   string
}

// HealthResponse is the JSON body served by the health endpoint.
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Generator *GeneratorHealth       `json:"generator,omitempty"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// GeneratorHealth summarizes the collector counters that affect health.
type GeneratorHealth struct {
	StatesInitialized  uint64  `json:"states_initialized"`
	Reseeds            uint64  `json:"reseeds"`
	ForkReseeds        uint64  `json:"fork_reseeds"`
	BytesServed        uint64  `json:"bytes_served"`
	EntropyFailures    uint64  `json:"entropy_failures"`
	FatalErrors        uint64  `json:"fatal_errors"`
	EntropyFailureRate float64 `json:"entropy_failure_rate"`
}

// NewHealthCheck creates a health check reporting version. collector may be
// nil, in which case only registered checks count.
func NewHealthCheck(collector *Collector, version string) *HealthCheck {
	return &HealthCheck{
		checks:    make(map[string]CheckFunc),
		collector: collector,
		startTime: time.Now(),
		version:   version,
	}
}

// AddCheck registers check under name, replacing any previous one.
func (h *HealthCheck) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	h.checks[name] = check
	h.mu.Unlock()
}

// RemoveCheck removes a named check.
func (h *HealthCheck) RemoveCheck(name string) {
	h.mu.Lock()
	delete(h.checks, name)
	h.mu.Unlock()
}

// Check runs every registered check, in name order, and folds in the
// collector counters.
func (h *HealthCheck) Check() HealthResponse {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, fn := range h.checks {
		checks[name] = fn
	}
	h.mu.RUnlock()
	sort.Strings(names)

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime).Truncate(time.Second).String(),
		Version:   h.version,
		Checks:    make(map[string]CheckResult, len(names)),
	}

	for _, name := range names {
		start := time.Now()
		err := checks[name]()
		res := CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
		if err != nil {
			res.Status = HealthStatusUnhealthy
			res.Message = err.Error()
			resp.Status = HealthStatusUnhealthy
		}
		resp.Checks[name] = res
	}

	if h.collector != nil {
		gh := generatorHealth(h.collector.Snapshot())
		resp.Generator = &gh
		switch {
		case gh.FatalErrors > 0:
			resp.Status = HealthStatusUnhealthy
		case gh.EntropyFailureRate > MaxEntropyFailureRate && resp.Status == HealthStatusHealthy:
			resp.Status = HealthStatusDegraded
		}
	}

	return resp
}

func generatorHealth(snap Snapshot) GeneratorHealth {
	gh := GeneratorHealth{
		StatesInitialized: snap.StatesInitialized,
		Reseeds:           snap.Reseeds,
		ForkReseeds:       snap.ForkReseeds,
		BytesServed:       snap.BytesServed,
		EntropyFailures:   snap.EntropyFailures,
		FatalErrors:       snap.FatalErrors,
	}
	if attempts := snap.Reseeds + snap.EntropyFailures; attempts > 0 {
		gh.EntropyFailureRate = float64(snap.EntropyFailures) / float64(attempts)
	}
	return gh
}

// Handler serves the full HealthResponse. Degraded still answers 200.
func (h *HealthCheck) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check()
		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// LivenessHandler answers 200 while the process is running.
func (h *HealthCheck) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
}

// ReadinessHandler answers 200 unless the process is unhealthy.
func (h *HealthCheck) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := h.Check().Status
		ready := status != HealthStatusUnhealthy
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{"status": status, "ready": ready})
	})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// --- Server ---

// Server timeouts. The endpoints answer from memory, so they are short.
const (
	serverReadHeaderTimeout = 5 * time.Second
	serverWriteTimeout      = 10 * time.Second
	serverIdleTimeout       = 60 * time.Second
)

// Server exposes /metrics and the health endpoints over HTTP.
type Server struct {
	mux    *http.ServeMux
	health *HealthCheck

	mu  sync.Mutex
	srv *http.Server
}

// ServerConfig configures the observability server.
type ServerConfig struct {
	Collector        *Collector
	Version          string
	Namespace        string // Prometheus namespace, "libottery" when empty
	EnablePrometheus bool
	EnableHealth     bool
}

// NewServer creates the server. Nothing listens until ListenAndServe.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "libottery"
	}

	s := &Server{mux: http.NewServeMux()}
	if cfg.EnablePrometheus {
		s.mux.Handle("/metrics", NewPrometheusExporter(cfg.Collector, cfg.Namespace).Handler())
	}
	if cfg.EnableHealth {
		s.health = NewHealthCheck(cfg.Collector, cfg.Version)
		s.mux.Handle("/health", s.health.Handler())
		s.mux.Handle("/healthz", s.health.LivenessHandler())
		s.mux.Handle("/readyz", s.health.ReadinessHandler())
	}
	return s
}

// Handler returns the server's mux.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// AddHealthCheck registers a check. It is a no-op when health endpoints are
// disabled.
func (s *Server) AddHealthCheck(name string, check CheckFunc) {
	if s.health != nil {
		s.health.AddCheck(name, check)
	}
}

// ListenAndServe serves on addr until Shutdown. It returns
// http.ErrServerClosed after a clean shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: serverReadHeaderTimeout,
		WriteTimeout:      serverWriteTimeout,
		IdleTimeout:       serverIdleTimeout,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown stops a running server, waiting for in-flight requests until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
