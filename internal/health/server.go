// Package health exposes the liveness/readiness endpoints and the Prometheus
// scrape surface for the scheduled evaluation loop.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ace-loop/internal/metrics"
)

const (
	readyCheckTimeout = 3 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// DatabasePinger checks connectivity to the optional persistence layer.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Config holds the health server settings.
type Config struct {
	ServiceName string
	Version     string
	Port        string
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
	Logger      *logrus.Logger
	// DB is checked on /ready when set.
	DB DatabasePinger
}

// Server answers /health, /live, and /ready, and optionally serves metrics.
// Readiness is flipped by the scheduler once the loop is wired and scheduled.
type Server struct {
	cfg    Config
	server *http.Server
	logger *logrus.Logger

	mu    sync.RWMutex
	ready bool
}

type probeStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewServer creates the health server. Port falls back to HEALTH_PORT, then 8080.
func NewServer(cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = os.Getenv("HEALTH_PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{cfg: cfg, logger: logger}
}

// SetReady flips the readiness gate.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// IsReady reports the readiness gate.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves in the background and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	if s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	}

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":    s.cfg.Port,
			"service": s.cfg.ServiceName,
		}).Info("Health server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown stops the server, allowing in-flight probes to finish.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Health server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, probeStatus{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Version:   s.cfg.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, probeStatus{Status: "ok", Service: s.cfg.ServiceName})
}

// handleReady reports whether the loop is scheduled and, when persistence is
// enabled, whether the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"scheduler": "ok"}
	healthy := s.IsReady()
	if !healthy {
		checks["scheduler"] = "not_ready"
	}

	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()
		if err := s.cfg.DB.Ping(ctx); err != nil {
			healthy = false
			checks["database"] = "error: " + err.Error()
		} else {
			checks["database"] = "ok"
		}
	}

	status := probeStatus{Status: "ok", Service: s.cfg.ServiceName, Checks: checks}
	code := http.StatusOK
	if !healthy {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, status)
}

func writeStatus(w http.ResponseWriter, code int, status probeStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
