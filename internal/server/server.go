// Package server exposes the daemon's control API: a localhost-only JSON
// surface consumed by the CLI and the tray.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gainhour/gainhour/internal/icons"
	"github.com/gainhour/gainhour/internal/store"
	"github.com/gainhour/gainhour/internal/tracker"
)

// Server serves the control API.
type Server struct {
	engine  *tracker.Engine
	store   *store.Store
	icons   *icons.Cache
	log     zerolog.Logger
	version string

	http *http.Server
	port int
}

// New builds the server. Call Start to begin listening.
func New(engine *tracker.Engine, st *store.Store, ic *icons.Cache, version string, log zerolog.Logger) *Server {
	return &Server{engine: engine, store: st, icons: ic, version: version, log: log}
}

// Start listens on 127.0.0.1:port and serves in a background goroutine.
// port 0 picks an ephemeral port; the bound port is returned either way.
// Binding localhost only keeps the API off the network and avoids
// firewall prompts.
func (s *Server) Start(port int) (int, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return 0, fmt.Errorf("listen: %w", err)
	}
	s.port = ln.Addr().(*net.TCPAddr).Port

	s.http = &http.Server{
		Handler:           s.requestLogger(s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("http server failed")
		}
	}()

	s.log.Info().Int("port", s.port).Msg("control api listening")
	return s.port, nil
}

// Port returns the bound port after Start.
func (s *Server) Port() int {
	return s.port
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	mux.HandleFunc("POST /api/sessions", s.handleSessionStart)
	mux.HandleFunc("POST /api/sessions/stop", s.handleSessionStop)
	mux.HandleFunc("POST /api/sessions/description", s.handleSessionDescription)

	mux.HandleFunc("GET /api/activities", s.handleActivities)
	mux.HandleFunc("POST /api/activities/visibility", s.handleVisibility)
	mux.HandleFunc("POST /api/activities/icon", s.handleIcon)
	mux.HandleFunc("DELETE /api/activities/{id}", s.handleActivityDelete)

	mux.HandleFunc("GET /api/stats/summary", s.handleStatsSummary)
	mux.HandleFunc("GET /api/stats/today", s.handleStatsToday)
	mux.HandleFunc("GET /api/stats/daily", s.handleStatsDaily)
	mux.HandleFunc("GET /api/stats/descriptions", s.handleStatsDescriptions)

	mux.HandleFunc("GET /api/settings", s.handleSettingsGet)
	mux.HandleFunc("POST /api/settings", s.handleSettingsSet)

	mux.HandleFunc("POST /api/ignore", s.handleIgnore)

	mux.HandleFunc("POST /api/presence/pin", s.handlePin)
	mux.HandleFunc("POST /api/presence/unpin", s.handleUnpin)
	mux.HandleFunc("POST /api/presence/reconnect", s.handleReconnect)

	mux.HandleFunc("POST /api/reset", s.handleReset)

	return mux
}

// requestLogger tags each request with an id and logs method, path,
// status and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.log.Debug().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
