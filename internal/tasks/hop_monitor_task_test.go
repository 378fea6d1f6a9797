package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/hopmonitor"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

func TestHopMonitorTaskSetupDiscoversHops(t *testing.T) {
	runner := &fakeRunner{responses: []fakeResponse{{stdout: traceOutputA}}}
	tracer := probe.NewTracer(runner, 15)
	pinger := probe.NewPinger(&fakeRunner{responses: []fakeResponse{{stdout: "time=1 ms"}, {stdout: "time=1 ms"}}})
	monitor := hopmonitor.NewMonitor(tracer, pinger, "1.1.1.1")
	repo := stats.New(1800, 600, 50)

	task := NewHopMonitorTask(monitor, repo, "1.1.1.1", time.Second, time.Hour, testLogger())
	if err := task.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if monitor.HopCount() == 0 {
		t.Error("expected hops to be discovered during setup")
	}
	if repo.Snapshot().HopMonitorDiscovering {
		t.Error("discovering flag should be cleared after setup completes")
	}
}

func TestHopMonitorTaskExecutePingsWithoutRediscoveryWhenFresh(t *testing.T) {
	runner := &fakeRunner{responses: []fakeResponse{{stdout: traceOutputA}}}
	tracer := probe.NewTracer(runner, 15)
	pinger := probe.NewPinger(&fakeRunner{responses: []fakeResponse{{stdout: "time=1 ms"}, {stdout: "time=1 ms"}}})
	monitor := hopmonitor.NewMonitor(tracer, pinger, "1.1.1.1")
	repo := stats.New(1800, 600, 50)

	task := NewHopMonitorTask(monitor, repo, "1.1.1.1", time.Second, time.Hour, testLogger())
	_ = task.Setup(context.Background())
	task.lastDiscovery = time.Now()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if monitor.IsDiscovering() {
		t.Error("should not be rediscovering within the rediscover interval")
	}
}
