package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/stats"
)

func TestTTLMonitorTaskExecuteRunsWithoutError(t *testing.T) {
	runner := &fakeRunner{responses: []fakeResponse{{stdout: "ttl=64 time=1ms"}}}
	repo := stats.New(1800, 600, 50)

	task := NewTTLMonitorTask(runner, repo, "1.1.1.1", time.Second, testLogger())
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
}
