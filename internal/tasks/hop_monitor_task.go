package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/hopmonitor"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// HopMonitorTask discovers the hops along the path to the target and
// pings each independently, re-running discovery on a fixed interval
// or immediately when the public IP changes.
type HopMonitorTask struct {
	monitor            *hopmonitor.Monitor
	repo               *stats.Repository
	target             string
	pingInterval       time.Duration
	rediscoverInterval time.Duration
	logger             *slog.Logger

	lastDiscovery time.Time
}

func NewHopMonitorTask(monitor *hopmonitor.Monitor, repo *stats.Repository, target string, pingInterval, rediscoverInterval time.Duration, logger *slog.Logger) *HopMonitorTask {
	return &HopMonitorTask{monitor: monitor, repo: repo, target: target, pingInterval: pingInterval, rediscoverInterval: rediscoverInterval, logger: logger}
}

func (t *HopMonitorTask) Name() string           { return "hop_monitor" }
func (t *HopMonitorTask) Interval() time.Duration { return t.pingInterval }
func (t *HopMonitorTask) Enabled() bool          { return true }

func (t *HopMonitorTask) Setup(ctx context.Context) error {
	t.repo.UpdateHopMonitor(nil, true)
	if _, err := t.monitor.DiscoverHops(ctx, t.target); err != nil {
		t.logger.Debug("initial hop discovery failed", "error", err)
	}
	t.repo.UpdateHopMonitor(t.snapshot(), false)
	t.lastDiscovery = time.Now()
	return nil
}

func (t *HopMonitorTask) Execute(ctx context.Context) error {
	needRediscovery := t.monitor.ConsumeRediscoveryRequest() || time.Since(t.lastDiscovery) > t.rediscoverInterval

	if needRediscovery {
		t.repo.UpdateHopMonitor(nil, true)
		if _, err := t.monitor.DiscoverHops(ctx, t.target); err != nil {
			t.logger.Debug("hop rediscovery failed", "error", err)
		}
		t.repo.UpdateHopMonitor(t.snapshot(), false)
		t.lastDiscovery = time.Now()
		return nil
	}

	t.monitor.PingAllHops(ctx)
	t.repo.UpdateHopMonitor(t.snapshot(), false)
	return nil
}

func (t *HopMonitorTask) snapshot() []stats.HopStatus {
	hops := t.monitor.Snapshot()
	out := make([]stats.HopStatus, len(hops))
	for i, h := range hops {
		out[i] = stats.HopStatus{
			HopNumber: h.HopNumber, IP: h.IP, Hostname: h.Hostname,
			LastLatencyMs: h.LastLatencyMs,
			AvgLatencyMs:  h.AvgLatencyMs, MinLatencyMs: h.MinLatencyMs, MaxLatencyMs: h.MaxLatencyMs,
			LossCount: h.LossCount, TotalPings: h.TotalPings, LastOK: h.LastOK,
		}
	}
	return out
}
