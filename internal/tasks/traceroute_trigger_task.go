package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// TracerouteTriggerTask watches consecutive packet loss and fires an
// on-demand traceroute save once losses cross TriggerLosses, subject
// to Cooldown since the last save.
type TracerouteTriggerTask struct {
	repo   *stats.Repository
	target string
	cfg    config.TraceConfig
	save   func(ctx context.Context, target string, now time.Time) error
	logger *slog.Logger

	lastTriggered time.Time
}

func NewTracerouteTriggerTask(repo *stats.Repository, target string, cfg config.TraceConfig, save func(ctx context.Context, target string, now time.Time) error, logger *slog.Logger) *TracerouteTriggerTask {
	return &TracerouteTriggerTask{repo: repo, target: target, cfg: cfg, save: save, logger: logger}
}

func (t *TracerouteTriggerTask) Name() string           { return "traceroute_trigger" }
func (t *TracerouteTriggerTask) Interval() time.Duration { return time.Second }
func (t *TracerouteTriggerTask) Enabled() bool          { return t.cfg.EnableAuto }
func (t *TracerouteTriggerTask) Setup(ctx context.Context) error { return nil }

func (t *TracerouteTriggerTask) Execute(ctx context.Context) error {
	if t.repo.ConsecutiveLosses() < t.cfg.TriggerLosses {
		return nil
	}

	now := time.Now()
	if !t.lastTriggered.IsZero() && now.Sub(t.lastTriggered) < t.cfg.Cooldown {
		return nil
	}

	t.lastTriggered = now
	if err := t.save(ctx, t.target, now); err != nil {
		t.logger.Warn("auto traceroute failed", "target", t.target, "error", err)
	}
	return nil
}
