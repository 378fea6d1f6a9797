package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/alert"
	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

const (
	mtuStatusOK         = "ok"
	mtuStatusLow        = "low"
	mtuStatusFragmented = "fragmented"
)

// MTUMonitorTask checks local and (periodically) path MTU, applying
// hysteresis so a status change is only published once it has been
// observed consistently for several checks in a row.
type MTUMonitorTask struct {
	checker *probe.MTUChecker
	repo    *stats.Repository
	mgr     *alert.Manager
	target  string
	cfg     config.MTUConfig
	logger  *slog.Logger

	lastPathCheck    time.Time
	lastKnownPathMTU int
	hasLastKnownPath bool
	firstRun         bool
}

func NewMTUMonitorTask(checker *probe.MTUChecker, repo *stats.Repository, mgr *alert.Manager, target string, cfg config.MTUConfig, logger *slog.Logger) *MTUMonitorTask {
	return &MTUMonitorTask{checker: checker, repo: repo, mgr: mgr, target: target, cfg: cfg, logger: logger, firstRun: true}
}

func (t *MTUMonitorTask) Name() string           { return "mtu_monitor" }
func (t *MTUMonitorTask) Interval() time.Duration { return t.cfg.CheckInterval }
func (t *MTUMonitorTask) Enabled() bool          { return true }
func (t *MTUMonitorTask) Setup(ctx context.Context) error { return nil }

func (t *MTUMonitorTask) Execute(ctx context.Context) error {
	shouldCheckPath := t.cfg.EnablePathDiscovery && time.Since(t.lastPathCheck) >= t.cfg.PathCheckInterval

	localMTU, hasLocal := t.checker.LocalMTU()

	var pathMTU int
	var hasPath bool
	if shouldCheckPath {
		t.lastPathCheck = time.Now()
		pathMTU, hasPath = t.checker.DiscoverPathMTU(ctx, t.target, false, t.cfg.DefaultMTU)
		if hasPath {
			t.lastKnownPathMTU, t.hasLastKnownPath = pathMTU, true
		}
	} else if t.hasLastKnownPath {
		pathMTU, hasPath = t.lastKnownPathMTU, true
	}

	status := mtuStatusOK
	if hasLocal && hasPath {
		diff := localMTU - pathMTU
		switch {
		case pathMTU < 1000:
			status = mtuStatusFragmented
		case diff >= t.cfg.DiffThreshold && pathMTU < localMTU:
			status = mtuStatusLow
		}
	}
	isIssue := status == mtuStatusLow || status == mtuStatusFragmented

	if t.firstRun {
		t.firstRun = false
		t.repo.UpdateMTU(localMTU, hasLocal, pathMTU, hasPath, status)
		t.repo.UpdateMTUHysteresis(isIssue)
		t.logger.Info("mtu initial status", "status", status)
		if isIssue {
			t.emitProblem(status)
		}
		return nil
	}

	current := t.repo.Snapshot().MTUStatus
	consIssues, consOK := t.repo.UpdateMTUHysteresis(isIssue)

	if isIssue {
		if consIssues >= t.cfg.IssueConsecutive && current != status {
			t.repo.UpdateMTU(localMTU, hasLocal, pathMTU, hasPath, status)
			t.repo.SetMTUHysteresis(consIssues, consOK, true)
			t.logger.Info("mtu problem", "status", status)
			t.emitProblem(status)
		}
	} else if consOK >= t.cfg.ClearConsecutive && current != mtuStatusOK {
		t.repo.UpdateMTU(localMTU, hasLocal, pathMTU, hasPath, mtuStatusOK)
		t.repo.SetMTUHysteresis(consIssues, consOK, true)
		t.logger.Info("mtu status cleared")
	}
	return nil
}

func (t *MTUMonitorTask) emitProblem(status string) {
	entity := alert.NewEntity(alert.TypeMTUIssue, "path MTU issue: "+status, alert.PriorityMedium,
		alert.Context{Service: "mtu", Component: "path_mtu", ProblemType: "mtu_issue", Target: t.target}, nil)
	t.mgr.ProcessAlert(&entity)
}
