package tasks

import (
	"context"
	"testing"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

func TestDNSMonitorTaskExecuteUpdatesRepository(t *testing.T) {
	checker := probe.NewDNSChecker(100)
	repo := stats.New(1800, 600, 50)
	cfg := config.DNSConfig{CheckInterval: 0, EnableBenchmark: false}

	task := NewDNSMonitorTask(checker, repo, cfg, testLogger())
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	snap := repo.Snapshot()
	if snap.DNSStatus == "" {
		t.Error("expected a DNS status to be recorded")
	}
}
