// Package metricsrv exposes pathwatch's Prometheus text-format
// metrics over HTTP, the metric names and shapes fixed by spec.md §6.
package metricsrv

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric instrument the daemon publishes.
type Registry struct {
	registry *prometheus.Registry

	PingsTotal            prometheus.Counter
	PingsSuccessTotal     prometheus.Counter
	PingsFailureTotal     prometheus.Counter
	MTUProblemsTotal      prometheus.Counter
	RouteChangesTotal     prometheus.Counter
	TraceroutesSavedTotal prometheus.Counter

	PacketLossPercent prometheus.Gauge
	MTUStatus         prometheus.Gauge
	RouteChanged      prometheus.Gauge

	PingLatencyMs prometheus.Histogram
}

// New builds a Registry with a fresh prometheus.Registry rather than
// the global default, so multiple instances never collide in tests.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		PingsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinger_pings_total", Help: "Total ping attempts issued.",
		}),
		PingsSuccessTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinger_pings_success_total", Help: "Total pings that received a reply.",
		}),
		PingsFailureTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinger_pings_failure_total", Help: "Total pings that timed out or failed.",
		}),
		MTUProblemsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinger_mtu_problems_total", Help: "Total MTU problem transitions observed.",
		}),
		RouteChangesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinger_route_changes_total", Help: "Total confirmed route changes.",
		}),
		TraceroutesSavedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinger_traceroutes_saved_total", Help: "Total traceroute dumps written to disk.",
		}),
		PacketLossPercent: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pinger_packet_loss_percent", Help: "Recent packet loss percentage.",
		}),
		MTUStatus: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pinger_mtu_status", Help: "MTU status: 0=OK, 1=reduced, 2=fragmented.",
		}),
		RouteChanged: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pinger_route_changed", Help: "1 if the path route has changed from baseline, else 0.",
		}),
		PingLatencyMs: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "pinger_ping_latency_ms", Help: "Observed ping round-trip latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500, 1000, 2500, 5000},
		}),
	}
	return r
}

// ObservePing records one ping outcome.
func (r *Registry) ObservePing(ok bool, latencyMs float64, hasLatency bool) {
	r.PingsTotal.Inc()
	if ok {
		r.PingsSuccessTotal.Inc()
	} else {
		r.PingsFailureTotal.Inc()
	}
	if hasLatency {
		r.PingLatencyMs.Observe(latencyMs)
	}
}

// SetPacketLossPercent updates the recent packet-loss gauge.
func (r *Registry) SetPacketLossPercent(pct float64) { r.PacketLossPercent.Set(pct) }

// SetMTUStatus updates the MTU status gauge (0 ok, 1 reduced, 2 fragmented).
func (r *Registry) SetMTUStatus(value float64) { r.MTUStatus.Set(value) }

// RecordMTUProblem increments the MTU-problem counter.
func (r *Registry) RecordMTUProblem() { r.MTUProblemsTotal.Inc() }

// SetRouteChanged updates the route-changed gauge (0 or 1).
func (r *Registry) SetRouteChanged(changed bool) {
	if changed {
		r.RouteChanged.Set(1)
	} else {
		r.RouteChanged.Set(0)
	}
}

// RecordRouteChange increments the confirmed-route-change counter.
func (r *Registry) RecordRouteChange() { r.RouteChangesTotal.Inc() }

// RecordTracerouteSaved increments the traceroute-dump counter.
func (r *Registry) RecordTracerouteSaved() { r.TraceroutesSavedTotal.Inc() }

// Server serves the registry over /metrics on addr.
type Server struct {
	addr   string
	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, reg *Registry, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.registry, promhttp.HandlerOpts{}))
	return &Server{
		addr:   addr,
		logger: logger,
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
