package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/alert"
	"github.com/pilot-net/pathwatch/internal/version"
)

// VersionCheckerTask periodically polls GitHub releases for a newer
// version than the one currently running.
type VersionCheckerTask struct {
	checker  *version.Checker
	mgr      *alert.Manager
	interval time.Duration
	logger   *slog.Logger
}

func NewVersionCheckerTask(checker *version.Checker, mgr *alert.Manager, interval time.Duration, logger *slog.Logger) *VersionCheckerTask {
	return &VersionCheckerTask{checker: checker, mgr: mgr, interval: interval, logger: logger}
}

func (t *VersionCheckerTask) Name() string           { return "version_checker" }
func (t *VersionCheckerTask) Interval() time.Duration { return t.interval }
func (t *VersionCheckerTask) Enabled() bool          { return true }
func (t *VersionCheckerTask) Setup(ctx context.Context) error { return nil }

func (t *VersionCheckerTask) Execute(ctx context.Context) error {
	available, current, latest, ok := t.checker.CheckUpdateAvailable(ctx)
	if !ok {
		t.logger.Debug("version check: unable to fetch latest version")
		return nil
	}
	if !available {
		t.logger.Debug("version check: up to date", "current", current)
		return nil
	}

	t.logger.Info("update available", "current", current, "latest", latest)
	entity := alert.NewEntity(alert.TypeAnomaly,
		fmt.Sprintf("update available: %s -> %s", current, latest),
		alert.PriorityLow,
		alert.Context{Service: "version", Component: "release_check", ProblemType: "update_available"}, nil)
	t.mgr.ProcessAlert(&entity)
	return nil
}
