package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/stats"
)

func TestTracerouteTriggerTaskFiresAfterConsecutiveLosses(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	for i := 0; i < 3; i++ {
		repo.UpdateAfterPing(false, 0, false, false, 0, false)
	}

	cfg := config.TraceConfig{EnableAuto: true, TriggerLosses: 3, Cooldown: time.Minute}
	var saveCalls int
	task := NewTracerouteTriggerTask(repo, "1.1.1.1", cfg, func(ctx context.Context, target string, now time.Time) error {
		saveCalls++
		return nil
	}, testLogger())

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if saveCalls != 1 {
		t.Fatalf("expected 1 save call, got %d", saveCalls)
	}

	// Second execute within cooldown should not trigger again.
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if saveCalls != 1 {
		t.Errorf("expected cooldown to suppress a second save, got %d calls", saveCalls)
	}
}

func TestTracerouteTriggerTaskSkipsBelowThreshold(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	repo.UpdateAfterPing(false, 0, false, false, 0, false)

	cfg := config.TraceConfig{EnableAuto: true, TriggerLosses: 3, Cooldown: time.Minute}
	var saveCalls int
	task := NewTracerouteTriggerTask(repo, "1.1.1.1", cfg, func(ctx context.Context, target string, now time.Time) error {
		saveCalls++
		return nil
	}, testLogger())

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if saveCalls != 0 {
		t.Errorf("expected no save below threshold, got %d", saveCalls)
	}
}
