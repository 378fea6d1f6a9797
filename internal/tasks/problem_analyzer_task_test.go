package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/problem"
	"github.com/pilot-net/pathwatch/internal/stats"
)

func TestProblemAnalyzerTaskExecuteUpdatesRepository(t *testing.T) {
	analyzer := problem.New(100, 6000*time.Second)
	repo := stats.New(1800, 600, 50)

	for i := 0; i < 20; i++ {
		repo.UpdateAfterPing(false, 0, false, false, 0, false)
	}

	task := NewProblemAnalyzerTask(analyzer, repo, time.Minute, testLogger())
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	snap := repo.Snapshot()
	if snap.CurrentProblemType == "" {
		t.Error("expected a problem type to be recorded")
	}
}
