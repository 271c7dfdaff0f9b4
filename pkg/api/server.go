package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cuemby/fluxdns/pkg/log"
	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
)

// PassSource exposes the most recent reconciliation pass
type PassSource interface {
	LastPass() (types.PassReport, bool)
}

// StatusServer serves health, readiness, metrics and pass status over HTTP
type StatusServer struct {
	passes PassSource
	mux    *http.ServeMux

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	closed   bool
}

// StatusResponse is the body of /status
type StatusResponse struct {
	Status  string                    `json:"status"` // "pending" until the first pass completes
	Pass    *types.PassReport         `json:"pass,omitempty"`
	Summary map[types.OutcomeKind]int `json:"summary,omitempty"`
}

// NewStatusServer creates a status server reading pass reports from passes
func NewStatusServer(passes PassSource) *StatusServer {
	mux := http.NewServeMux()
	s := &StatusServer{
		passes: passes,
		mux:    mux,
	}

	mux.Handle("/health", readOnly(metrics.HealthHandler()))
	mux.Handle("/health/live", readOnly(metrics.LivenessHandler()))
	mux.Handle("/ready", readOnly(metrics.ReadyHandler()))
	mux.Handle("/metrics", readOnly(metrics.Handler()))
	mux.Handle("/status", readOnly(http.HandlerFunc(s.statusHandler)))

	return s
}

// Handler returns the HTTP handler for embedding in other servers
func (s *StatusServer) Handler() http.Handler {
	return logRequests(s.mux)
}

// Start listens on addr and serves until Shutdown is called. Start after
// Shutdown returns nil without listening.
func (s *StatusServer) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	logger := log.WithComponent("api")
	logger.Info().Str("addr", ln.Addr().String()).Msg("status server listening")

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the listening address, or nil when the server is not listening
func (s *StatusServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.closed {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the server and prevents a later Start from listening
func (s *StatusServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	server, ln := s.server, s.listener
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	err := server.Shutdown(ctx)
	// Serve may not have taken ownership of the listener yet
	if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

func (s *StatusServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	report, ok := s.passes.LastPass()
	if !ok {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "pending"})
		return
	}

	summary := make(map[types.OutcomeKind]int)
	for _, o := range report.Outcomes {
		summary[o.Kind]++
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Pass:    &report,
		Summary: summary,
	})
}
