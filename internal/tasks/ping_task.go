// Package tasks wires internal/probe, internal/stats, internal/route,
// internal/problem, and internal/alert together into the concrete
// periodic task.Task implementations the daemon schedules.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/alert"
	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// latch names the four edge-triggered threshold latches evaluated
// after every ping.
type latch string

const (
	latchHighPacketLoss latch = "high_packet_loss"
	latchHighAvgLatency latch = "high_avg_latency"
	latchConnectionLost latch = "connection_lost"
	latchHighJitter     latch = "high_jitter"
)

// PingTask is the core connectivity loop: ping the target every
// interval, feed the result into the stats repository, and evaluate
// the threshold latches against the alert manager.
type PingTask struct {
	pinger   *probe.Pinger
	repo     *stats.Repository
	mgr      *alert.Manager
	target   string
	interval time.Duration
	cfg      config.AlertingConfig
	logger   *slog.Logger
}

func NewPingTask(pinger *probe.Pinger, repo *stats.Repository, mgr *alert.Manager, target string, interval time.Duration, cfg config.AlertingConfig, logger *slog.Logger) *PingTask {
	return &PingTask{pinger: pinger, repo: repo, mgr: mgr, target: target, interval: interval, cfg: cfg, logger: logger}
}

func (t *PingTask) Name() string           { return "ping" }
func (t *PingTask) Interval() time.Duration { return t.interval }
func (t *PingTask) Enabled() bool           { return true }
func (t *PingTask) Setup(ctx context.Context) error {
	t.repo.SetStartTime(time.Now())
	return nil
}

func (t *PingTask) Execute(ctx context.Context) error {
	ok, latencyMs, err := t.pinger.Ping(ctx, t.target)
	if err != nil && !ok {
		t.logger.Debug("ping failed", "target", t.target, "error", err)
	}

	highLatencyFlag, _ := t.repo.UpdateAfterPing(ok, latencyMs, ok, true, t.cfg.HighLatencyThresholdMs, false)
	if highLatencyFlag {
		t.raise(alert.TypeHighLatency, fmt.Sprintf("high latency: %.1fms", latencyMs), "high_latency")
	}

	t.checkLatches()
	return nil
}

// checkLatches recomputes the four §4.M threshold latches over the
// repository's current window state and feeds any set/clear
// transition into the alert manager and the visual-alert list.
func (t *PingTask) checkLatches() {
	snap := t.repo.Snapshot()

	lossPct := 0.0
	if len(snap.RecentResults) > 0 {
		losses := 0
		for _, ok := range snap.RecentResults {
			if !ok {
				losses++
			}
		}
		lossPct = float64(losses) / float64(len(snap.RecentResults)) * 100
	}
	t.transition(latchHighPacketLoss, lossPct > t.cfg.PacketLossThresholdPct, alert.TypePacketLoss,
		fmt.Sprintf("packet loss %.1f%% exceeds %.1f%% threshold", lossPct, t.cfg.PacketLossThresholdPct),
		"packet loss normalized", "packet_loss")

	avgLatency := 0.0
	if snap.Success > 0 {
		avgLatency = snap.TotalLatencySum / float64(snap.Success)
	}
	t.transition(latchHighAvgLatency, avgLatency > t.cfg.AvgLatencyThresholdMs, alert.TypeHighAvgLatency,
		fmt.Sprintf("average latency %.1fms exceeds %.1fms threshold", avgLatency, t.cfg.AvgLatencyThresholdMs),
		"average latency normalized", "high_avg_latency")

	t.transition(latchConnectionLost, snap.ConsecutiveLosses >= t.cfg.ConsecutiveLossThreshold, alert.TypeConnectionLost,
		fmt.Sprintf("%d consecutive ping failures to %s", snap.ConsecutiveLosses, t.target),
		"connection restored", "connection_lost")

	t.transition(latchHighJitter, snap.Jitter > t.cfg.JitterThresholdMs, alert.TypeHighJitter,
		fmt.Sprintf("jitter %.1fms exceeds %.1fms threshold", snap.Jitter, t.cfg.JitterThresholdMs),
		"jitter normalized", "high_jitter")
}

// transition reads the latch's previous state, writes the new state,
// and only on an edge raises the set alert (current true) or a
// distinct "normalized" info alert (current false).
func (t *PingTask) transition(name latch, current bool, alertType alert.Type, setMessage, clearMessage, problemType string) {
	key := string(name)
	was := t.repo.ThresholdState(key)
	t.repo.UpdateThresholdState(key, current)

	if current == was {
		return
	}
	if current {
		t.raise(alertType, setMessage, problemType)
		return
	}
	t.raiseNormalized(alertType, clearMessage, problemType)
}

func (t *PingTask) raise(alertType alert.Type, message, problemType string) {
	t.repo.AddAlert(message, string(alertType), t.cfg.MaxActiveAlerts)
	entity := alert.NewEntity(alertType, message, alert.PriorityMedium, alert.Context{
		Service: "ping", Component: "icmp", ProblemType: problemType, Target: t.target,
	}, nil)
	t.mgr.ProcessAlert(&entity)
}

// raiseNormalized emits the distinct low-priority info alert spec.md
// requires when a latch clears, reusing the latch's own alert type so
// it groups/dedups against the alert that set it, but at LOW priority
// and under the "normalized" visual-alert label.
func (t *PingTask) raiseNormalized(alertType alert.Type, message, problemType string) {
	t.repo.AddAlert(message, "normalized", t.cfg.MaxActiveAlerts)
	entity := alert.NewEntity(alertType, message, alert.PriorityLow, alert.Context{
		Service: "ping", Component: "icmp", ProblemType: problemType + "_normalized", Target: t.target,
	}, nil)
	t.mgr.ProcessAlert(&entity)
}
