// Package health serves the liveness/readiness HTTP endpoints the
// daemon exposes for external monitoring, separate from the
// Prometheus metrics surface in internal/metricsrv.
package health

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pilot-net/pathwatch/internal/secrets"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// StatsSource is the subset of stats.Repository the health server
// needs to answer /ready.
type StatsSource interface {
	Snapshot() stats.Snapshot
}

// Config configures endpoint authentication and proxy trust.
type Config struct {
	Addr           string
	TokenHeader    string
	TrustedProxies []string
}

// Server serves GET /health and GET /ready.
type Server struct {
	addr        string
	tokenHeader string
	trusted     map[string]struct{}
	repo        StatsSource
	secrets     secrets.Provider
	logger      *slog.Logger
	srv         *http.Server
}

func NewServer(cfg Config, repo StatsSource, provider secrets.Provider, logger *slog.Logger) *Server {
	header := cfg.TokenHeader
	if header == "" {
		header = "X-Health-Token"
	}
	trusted := make(map[string]struct{}, len(cfg.TrustedProxies))
	for _, p := range cfg.TrustedProxies {
		trusted[strings.TrimSpace(p)] = struct{}{}
	}

	s := &Server{
		addr:        cfg.Addr,
		tokenHeader: header,
		trusted:     trusted,
		repo:        repo,
		secrets:     provider,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.withAuth(s.handleHealth))
	mux.HandleFunc("GET /ready", s.withAuth(s.handleReady))
	s.srv = &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	snap := s.repo.Snapshot()
	if snap.Total == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"total":  0,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"total":   snap.Total,
		"success": snap.Success,
	})
}

// withAuth enforces Basic Auth and/or a static token header when the
// secrets provider returns credentials for either; if neither a
// password nor a token is configured, requests pass through
// unauthenticated.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.secrets == nil {
			next(w, r)
			return
		}

		user, pass, token, err := s.secrets.HealthCredentials(r.Context())
		if err != nil {
			s.logger.Error("resolving health credentials", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if pass == "" && token == "" {
			next(w, r)
			return
		}

		if token != "" && secrets.VerifyToken(token, r.Header.Get(s.tokenHeader)) {
			next(w, r)
			return
		}

		if pass != "" {
			reqUser, reqPass, ok := r.BasicAuth()
			if ok && reqUser == user && secrets.VerifyPassword(pass, reqPass) {
				next(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="pathwatch"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}

// ClientIP returns the request's peer address, honoring
// X-Forwarded-For only when the immediate peer is in the trusted
// proxy allow-list.
func (s *Server) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if _, ok := s.trusted[host]; !ok {
		return host
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run starts the server and blocks until it exits or is shut down by
// the caller via Shutdown.
func (s *Server) Run() error {
	s.logger.Info("health server listening", "addr", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	return s.srv.Close()
}
