// Package httpapi exposes a local-only, read-only status surface over
// the running engine, grounded on internal/interfaces/http/server.go's
// gorilla/mux router, middleware chain, and graceful shutdown shape.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/cryptorun/engine/metrics"
)

// StatusProvider is whatever the engine exposes about its own running
// state; httpapi only renders it, it never mutates the engine.
type StatusProvider interface {
	EngineStatus() EngineStatus
}

// EngineStatus is a snapshot of one engine's current state for the
// /status endpoint.
type EngineStatus struct {
	Symbol          string  `json:"symbol"`
	Paused          bool    `json:"paused"`
	PositionOpen    bool    `json:"position_open"`
	LastTsCloseMs   int64   `json:"last_ts_close_ms"`
	Equity          float64 `json:"equity"`
	BarsProcessed   int64   `json:"bars_processed"`
	OrdersSubmitted int64   `json:"orders_submitted"`
}

type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host: "127.0.0.1", Port: 8090,
		ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 60 * time.Second,
	}
}

type Server struct {
	router  *mux.Router
	server  *http.Server
	config  Config
	status  StatusProvider
	promReg *prometheus.Registry
}

// NewServer builds a read-only status+metrics server; status reports
// come from provider, and /metrics serves promReg if non-nil.
func NewServer(config Config, provider StatusProvider, promReg *prometheus.Registry) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", config.Port, err)
	}
	listener.Close()

	s := &Server{
		router: mux.NewRouter(), config: config, status: provider, promReg: promReg,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr: addr, Handler: s.router,
		ReadTimeout: config.ReadTimeout, WriteTimeout: config.WriteTimeout, IdleTimeout: config.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	if s.promReg != nil {
		api.Handle("/metrics", metrics.Handler(s.promReg)).Methods("GET")
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.status == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "no engine attached"})
		return
	}
	json.NewEncoder(w).Encode(s.status.EngineStatus())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"error": "not found", "path": r.URL.Path})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapper, r)
		reqID, _ := r.Context().Value(requestIDKey{}).(string)
		log.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("httpapi request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("httpapi: starting read-only status server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) Address() string {
	return s.server.Addr
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ParsePort is a small helper for CLI flag parsing of HTTP_PORT-style
// env/flag values, mirroring the teacher's DefaultServerConfig.
func ParsePort(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return p
}
