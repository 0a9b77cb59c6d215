// Package web provides an HTTP status server for the fanshim daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/fanshim-mqtt/internal/history"
	"github.com/sweeney/fanshim-mqtt/internal/logger"
	"github.com/sweeney/fanshim-mqtt/internal/status"
)

// HistoryLimit is how many transitions /history.json returns.
const HistoryLimit = 50

// Server serves the status page, JSON status, metrics and history over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    history.Recorder
}

// New creates a Server that reads state from the given tracker. hist may be
// nil, in which case /history.json returns an empty list.
func New(addr string, tracker *status.Tracker, hist history.Recorder) *Server {
	if hist == nil {
		hist = history.Nop{}
	}
	s := &Server{tracker: tracker, history: hist}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/history.json", s.handleHistory)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		logger.Warn().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", string(metricsFormat))
	if err := writeMetrics(w, snap); err != nil {
		logger.Warn().Err(err).Msg("encode metrics")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Recent(HistoryLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("read history")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatHistory(entries))
}
