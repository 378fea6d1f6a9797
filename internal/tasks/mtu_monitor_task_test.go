package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

func TestMTUMonitorTaskFirstRunSeedsState(t *testing.T) {
	runner := &fakeRunner{responses: []fakeResponse{{stdout: "ping ok", err: nil}}}
	checker := probe.NewMTUChecker(runner)
	repo := stats.New(1800, 600, 50)
	mgr := testAlertManager()
	cfg := config.MTUConfig{
		CheckInterval: time.Minute, EnablePathDiscovery: false,
		DefaultMTU: 1500, IssueConsecutive: 2, ClearConsecutive: 2, DiffThreshold: 50,
	}

	task := NewMTUMonitorTask(checker, repo, mgr, "1.1.1.1", cfg, testLogger())
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if task.firstRun {
		t.Error("firstRun flag should be cleared after the first execute")
	}
}
