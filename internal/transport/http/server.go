// Package httptransport hosts the agent's local status and metrics endpoint.
package httptransport

import (
	"encoding/json"
	"net/http"
	"time"
)

// ServerConfig contains tunables for the HTTP server.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates *http.Server with provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Status is the snapshot served on /status.
type Status struct {
	Route      string `json:"route"`
	UserID     int64  `json:"user_id,omitempty"`
	WorkingOut bool   `json:"working_out"`
	Elapsed    string `json:"elapsed"`
}

// StatusSource produces the current session snapshot.
type StatusSource func() Status

// RegisterRoutes wires the status endpoints to the mux.
func RegisterRoutes(mux *http.ServeMux, source StatusSource) {
	mux.HandleFunc("/healthz", healthz)
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(source())
	})
}

// healthz reports a simple OK status for supervisor health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
