// Package daemon wires every subsystem into the long-running pathwatch
// process: the stats repository, the background task orchestrator, the
// smart alert manager, and the metrics/health HTTP surfaces.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pilot-net/pathwatch/internal/alert"
	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/health"
	"github.com/pilot-net/pathwatch/internal/hopmonitor"
	"github.com/pilot-net/pathwatch/internal/ipinfo"
	"github.com/pilot-net/pathwatch/internal/lock"
	"github.com/pilot-net/pathwatch/internal/metricsrv"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/problem"
	"github.com/pilot-net/pathwatch/internal/procreg"
	"github.com/pilot-net/pathwatch/internal/route"
	"github.com/pilot-net/pathwatch/internal/secrets"
	"github.com/pilot-net/pathwatch/internal/stats"
	"github.com/pilot-net/pathwatch/internal/task"
	"github.com/pilot-net/pathwatch/internal/tasks"
	"github.com/pilot-net/pathwatch/internal/version"
)

// lockFileName is the well-known single-instance lock under the
// system temp directory.
const lockFileName = "pathwatchd.lock"

// Daemon is the top-level supervisor: it owns every long-lived
// subsystem and coordinates startup and graceful shutdown.
type Daemon struct {
	cfg    *config.Settings
	logger *slog.Logger

	repo    *stats.Repository
	alerts  *alert.Manager
	metrics *metricsrv.Registry

	orchestrator *task.Orchestrator
	metricsSrv   *metricsrv.Server
	healthSrv    *health.Server
	lockInst     *lock.Instance
}

// New builds a Daemon from cfg, wiring every background task and
// supporting service. It does not start anything; call Run for that.
func New(cfg *config.Settings, logger *slog.Logger) (*Daemon, error) {
	repo := stats.New(cfg.WindowSize, cfg.LatencyWindow, 50)
	metrics := metricsrv.New()

	alertCfg := alert.ManagerConfig{
		DedupWindow:              cfg.Alerting.DedupWindow,
		GroupWindow:              cfg.Alerting.GroupWindow,
		RateLimitPerMinute:       cfg.Alerting.RateLimitPerMinute,
		RateLimitBurst:           cfg.Alerting.RateLimitBurst,
		EscalationThreshold:      cfg.Alerting.EscalationTime,
		AdaptiveBaselineUpdate:   time.Hour,
		AdaptiveAnomalySigma:     cfg.Alerting.AdaptiveAnomalySigma,
		SimilarityThreshold:      cfg.Alerting.SimilarityThreshold,
		EnableDeduplication:      true,
		EnableGrouping:           true,
		EnableDynamicPriority:    true,
		EnableAdaptiveThresholds: true,
	}
	mgr := alert.NewManager(alertCfg, repo, logger)

	registry := procreg.New(cfg.MaxConcurrentProcs, cfg.ForceKillTimeout, logger)

	pinger := probe.NewPinger(registry)
	tracer := probe.NewTracer(registry, cfg.Trace.MaxHops)
	mtuChecker := probe.NewMTUChecker(registry)
	dnsChecker := probe.NewDNSChecker(cfg.DNS.SlowThresholdMs)
	routeAnalyzer := route.New(cfg.Route.HopTimeoutThresholdMs, cfg.Route.HistorySize)
	problemAnalyzer := problem.New(cfg.Problem.HistorySize, cfg.Problem.LogSuppression)
	hopMonitor := hopmonitor.NewMonitor(tracer, pinger, cfg.TargetIP)
	ipChecker := ipinfo.NewChecker()
	versionChecker := version.NewChecker(cfg.Version)

	dumper := newTracerouteDumper(tracer, repo, metrics, "./traceroutes")

	orchestrator := task.NewOrchestrator(logger, 16)
	orchestrator.Register(tasks.NewPingTask(pinger, repo, mgr, cfg.TargetIP, cfg.Interval, cfg.Alerting, logger))
	orchestrator.Register(tasks.NewDNSMonitorTask(dnsChecker, repo, cfg.DNS, logger))
	orchestrator.Register(tasks.NewMTUMonitorTask(mtuChecker, repo, mgr, cfg.TargetIP, cfg.MTU, logger))
	orchestrator.Register(tasks.NewTTLMonitorTask(registry, repo, cfg.TargetIP, cfg.TTL.CheckInterval, logger))
	orchestrator.Register(tasks.NewHopMonitorTask(hopMonitor, repo, cfg.TargetIP, cfg.Hop.PingInterval, cfg.Hop.RediscoverInterval, logger))
	orchestrator.Register(tasks.NewIPUpdaterTask(ipChecker, repo, mgr, hopMonitor, 15*time.Second, logger))
	orchestrator.Register(tasks.NewVersionCheckerTask(versionChecker, mgr, time.Hour, logger))
	orchestrator.Register(tasks.NewProblemAnalyzerTask(problemAnalyzer, repo, cfg.Problem.AnalysisInterval, logger))
	orchestrator.Register(tasks.NewRouteAnalyzerTask(tracer, routeAnalyzer, repo, mgr, cfg.TargetIP, cfg.Route, cfg.Alerting.MaxActiveAlerts,
		func(target string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := dumper.Save(ctx, target, time.Now()); err != nil {
				logger.Warn("route-change traceroute save failed", "error", err)
			}
		}, logger))
	orchestrator.Register(tasks.NewTracerouteTriggerTask(repo, cfg.TargetIP, cfg.Trace, dumper.Save, logger))

	secretsProvider, err := secrets.New(secrets.Config{
		Backend:        cfg.Secrets.Backend,
		LocalUser:      cfg.Health.AuthUser,
		LocalPass:      cfg.Health.AuthPass,
		LocalToken:     cfg.Health.AuthToken,
		OPConnectHost:  os.Getenv("OP_CONNECT_HOST"),
		OPConnectToken: os.Getenv("OP_CONNECT_TOKEN"),
		OPVaultID:      os.Getenv("OP_VAULT_ID"),
		OPItemTitle:    cfg.Secrets.OnePasswordVault,
	})
	if err != nil {
		return nil, fmt.Errorf("building secrets provider: %w", err)
	}

	healthSrv := health.NewServer(health.Config{
		Addr:           cfg.Health.Addr,
		TokenHeader:    cfg.Health.TokenHeader,
		TrustedProxies: cfg.Health.TrustedProxies,
	}, repo, secretsProvider, logger)

	metricsSrv := metricsrv.NewServer(cfg.Metrics.Addr, metrics, logger)

	return &Daemon{
		cfg:          cfg,
		logger:       logger,
		repo:         repo,
		alerts:       mgr,
		metrics:      metrics,
		orchestrator: orchestrator,
		metricsSrv:   metricsSrv,
		healthSrv:    healthSrv,
	}, nil
}

// Run acquires the single-instance lock, starts every background task
// and HTTP surface, and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	inst, err := lock.Acquire(lockFileName)
	if err != nil {
		return fmt.Errorf("acquiring single-instance lock: %w", err)
	}
	d.lockInst = inst
	defer d.lockInst.Release()

	d.logger.Info("pathwatch starting", "target", d.cfg.TargetIP, "interval", d.cfg.Interval)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)

	go func() {
		d.orchestrator.Run(runCtx)
		errCh <- nil
	}()
	go func() { errCh <- d.metricsSrv.Run(runCtx) }()
	go func() { errCh <- d.healthSrv.Run() }()

	select {
	case err := <-errCh:
		cancel()
		d.shutdown()
		return err
	case <-ctx.Done():
		d.logger.Info("shutdown signal received, stopping")
		cancel()
		d.shutdown()
		return nil
	}
}

func (d *Daemon) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()
	_ = shutdownCtx

	if err := d.healthSrv.Shutdown(); err != nil {
		d.logger.Warn("health server shutdown error", "error", err)
	}
	d.logger.Info("pathwatch stopped")
}

// Alerts exposes the alert manager for CLI/UI surfaces that need to
// read active alerts without reaching into daemon internals.
func (d *Daemon) Alerts() *alert.Manager { return d.alerts }

// Stats exposes the stats repository for CLI/UI surfaces.
func (d *Daemon) Stats() *stats.Repository { return d.repo }
