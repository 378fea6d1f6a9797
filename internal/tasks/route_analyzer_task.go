package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/alert"
	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/route"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// RouteAnalyzerTask periodically traces the path to the target, diffs
// it against the last observed route, and latches a debounced
// route-changed state once the diff is sustained across several
// consecutive analyses.
type RouteAnalyzerTask struct {
	tracer   *probe.Tracer
	analyzer *route.Analyzer
	repo     *stats.Repository
	mgr      *alert.Manager
	target          string
	cfg             config.RouteConfig
	maxActiveAlerts int
	logger          *slog.Logger

	onRouteChangeConfirmed func(target string)
}

func NewRouteAnalyzerTask(tracer *probe.Tracer, analyzer *route.Analyzer, repo *stats.Repository, mgr *alert.Manager, target string, cfg config.RouteConfig, maxActiveAlerts int, onRouteChangeConfirmed func(target string), logger *slog.Logger) *RouteAnalyzerTask {
	return &RouteAnalyzerTask{
		tracer: tracer, analyzer: analyzer, repo: repo, mgr: mgr, target: target,
		cfg: cfg, maxActiveAlerts: maxActiveAlerts, onRouteChangeConfirmed: onRouteChangeConfirmed, logger: logger,
	}
}

func (t *RouteAnalyzerTask) Name() string            { return "route_analyzer" }
func (t *RouteAnalyzerTask) Interval() time.Duration  { return t.cfg.AnalysisInterval }
func (t *RouteAnalyzerTask) Enabled() bool            { return true }
func (t *RouteAnalyzerTask) Setup(ctx context.Context) error { return nil }

func (t *RouteAnalyzerTask) Execute(ctx context.Context) error {
	hops, err := t.tracer.Run(ctx, t.target)
	if err != nil && len(hops) == 0 {
		t.logger.Debug("traceroute failed", "target", t.target, "error", err)
		return nil
	}

	rec := t.analyzer.Analyze(hops)

	significantDiffs := 0
	for _, idx := range rec.DiffIndices {
		if idx >= t.cfg.IgnoreFirstHops {
			significantDiffs++
		}
	}
	isSignificant := significantDiffs >= t.cfg.ChangeHopDiff

	consChanges, consOK := t.repo.UpdateRouteHysteresis(isSignificant)

	if consChanges >= t.cfg.ChangeConsecutive {
		if !t.repo.IsRouteChanged() {
			t.repo.SetRouteChanged(true)
			t.emit(alert.TypeRouteChange, alert.PriorityLow, fmt.Sprintf("route to %s has changed", t.target))
			if consChanges >= t.cfg.SaveOnChangeConsecutive && t.onRouteChangeConfirmed != nil {
				t.onRouteChangeConfirmed(t.target)
			}
		}
	} else if consOK >= t.cfg.ChangeConsecutive {
		if t.repo.IsRouteChanged() {
			t.repo.SetRouteChanged(false)
			t.emit(alert.TypeRouteChange, alert.PriorityLow, fmt.Sprintf("route to %s has stabilized", t.target))
		}
	}

	routeHops := make([]stats.RouteHop, len(hops))
	for i, h := range hops {
		routeHops[i] = stats.RouteHop{
			HopNumber: h.HopNumber, IP: h.IPOrHost,
			LatencyMs: h.AvgLatency, TimedOut: h.IsTimeout,
		}
	}
	t.repo.UpdateRoute(routeHops, rec.ProblematicHop, rec.HasProblematic, t.repo.IsRouteChanged(), significantDiffs)

	if rec.HasProblematic {
		t.emit(alert.TypeHighLatency, alert.PriorityMedium, fmt.Sprintf("hop %d on the path to %s looks problematic", rec.ProblematicHop, t.target))
	}
	return nil
}

func (t *RouteAnalyzerTask) emit(alertType alert.Type, priority alert.Priority, message string) {
	t.repo.AddAlert(message, string(alertType), t.maxActiveAlerts)
	entity := alert.NewEntity(alertType, message, priority, alert.Context{
		Service: "route", Component: "traceroute", ProblemType: string(alertType), Target: t.target,
	}, nil)
	t.mgr.ProcessAlert(&entity)
}
