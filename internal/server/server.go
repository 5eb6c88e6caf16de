package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/healthdash/internal/config"
	"github.com/hazz-dev/healthdash/internal/metrics"
	"github.com/hazz-dev/healthdash/internal/state"
)

// Monitor is the part of the monitor the API drives.
type Monitor interface {
	Snapshot() state.State
	Recheck() (state.State, error)
	Reload() (state.State, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	monitor Monitor
	router  chi.Router
	logger  *slog.Logger
}

// New creates a new Server and registers all routes.
func New(monitor Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		monitor: monitor,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Get("/api/services", s.handleListServices)
	r.Get("/api/services/{name}", s.handleGetService)
	r.Post("/api/check", s.handleCheck)
	r.Post("/api/reload", s.handleReload)
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// writeTransition answers a request that tried to move the state.
func writeTransition(w http.ResponseWriter, snap state.State, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, snap)
	case errors.Is(err, state.ErrBusy), errors.Is(err, state.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Snapshot())
}

// statusUnknown marks a service that has not been checked since the last load.
const statusUnknown = "unknown"

type serviceView struct {
	config.Service
	Status      string     `json:"status"`
	StatusCode  int        `json:"statusCode,omitempty"`
	Error       string     `json:"error,omitempty"`
	LastChecked *time.Time `json:"lastChecked"`
	ResponseMs  int64      `json:"responseMs"`
}

// services lists the latest result per cached service, falling back to the
// bare descriptor when no cycle has finished since the last load.
func services(snap state.State) []serviceView {
	views := make([]serviceView, 0, len(snap.Services))
	if len(snap.Results) > 0 {
		for _, r := range snap.Results {
			checked := r.LastChecked
			views = append(views, serviceView{
				Service:     r.Service,
				Status:      string(r.Status),
				StatusCode:  r.StatusCode,
				Error:       r.Error,
				LastChecked: &checked,
				ResponseMs:  r.ResponseMs,
			})
		}
		return views
	}
	for _, svc := range snap.Services {
		views = append(views, serviceView{Service: svc, Status: statusUnknown})
	}
	return views
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services(s.monitor.Snapshot()))
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, v := range services(s.monitor.Snapshot()) {
		if v.Name == name {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, "service not found")
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	snap, err := s.monitor.Recheck()
	if err != nil {
		s.logger.Info("check refused", "phase", snap.Phase, "error", err)
	}
	writeTransition(w, snap, err)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.monitor.Reload()
	if err != nil {
		s.logger.Info("reload refused", "phase", snap.Phase, "error", err)
	}
	writeTransition(w, snap, err)
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := strconv.Itoa(sw.status)
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method, code).Observe(elapsed.Seconds())

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", elapsed,
		)
	})
}
