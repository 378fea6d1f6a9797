package procreg

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCapturesStdout(t *testing.T) {
	r := New(2, time.Second, discardLogger())
	out, _, err := r.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hello\n" {
		t.Errorf("stdout = %q, want %q", out, "hello\n")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	r := New(2, time.Second, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err := r.Run(ctx, "sleep", "5")
	if err == nil {
		t.Fatal("expected an error from a command killed by context deadline")
	}
}

func TestSemaphoreLimitsConcurrency(t *testing.T) {
	r := New(1, time.Second, discardLogger())
	ctx := context.Background()

	start := time.Now()
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			r.Run(ctx, "sleep", "0.05")
			done <- struct{}{}
		}()
	}
	<-done
	<-done
	// With a semaphore of size 1, two 50ms sleeps must run serially:
	// total elapsed should be closer to 100ms than 50ms.
	if time.Since(start) < 90*time.Millisecond {
		t.Errorf("commands appear to have run concurrently despite semaphore size 1: elapsed %v", time.Since(start))
	}
}

func TestCleanupOnEmptyRegistryIsNoop(t *testing.T) {
	r := New(2, time.Second, discardLogger())
	r.Cleanup() // must not panic or block
}
