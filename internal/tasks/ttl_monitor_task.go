package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// TTLMonitorTask periodically extracts the TTL from a single ping
// reply and estimates the hop count from it.
type TTLMonitorTask struct {
	runner   probe.Runner
	repo     *stats.Repository
	target   string
	interval time.Duration
	logger   *slog.Logger
}

func NewTTLMonitorTask(runner probe.Runner, repo *stats.Repository, target string, interval time.Duration, logger *slog.Logger) *TTLMonitorTask {
	return &TTLMonitorTask{runner: runner, repo: repo, target: target, interval: interval, logger: logger}
}

func (t *TTLMonitorTask) Name() string           { return "ttl_monitor" }
func (t *TTLMonitorTask) Interval() time.Duration { return t.interval }
func (t *TTLMonitorTask) Enabled() bool          { return true }
func (t *TTLMonitorTask) Setup(ctx context.Context) error { return nil }

func (t *TTLMonitorTask) Execute(ctx context.Context) error {
	ttl, hops, ok := probe.ExtractTTL(ctx, t.runner, t.target)
	if !ok {
		t.logger.Debug("ttl extraction failed", "target", t.target)
	}
	t.repo.UpdateTTL(ttl, ok, hops)
	return nil
}
