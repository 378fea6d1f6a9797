package alert

import (
	"testing"
	"time"
)

func newTestAlert(msg string) Entity {
	return NewEntity(TypePacketLoss, msg, PriorityHigh, Context{Service: "pathwatch", Component: "ping", ProblemType: "packet_loss", Target: "1.1.1.1"}, nil)
}

func TestShouldSuppressExactFingerprintMatch(t *testing.T) {
	d := NewDeduplicator(5*time.Minute, 0.85, true)
	a := newTestAlert("packet loss 25%")
	if d.ShouldSuppress(a) {
		t.Fatal("first alert should not be suppressed")
	}
	if !d.ShouldSuppress(a) {
		t.Fatal("identical repeat alert should be suppressed")
	}
	if d.SuppressedCount() != 1 {
		t.Errorf("suppressed count = %d, want 1", d.SuppressedCount())
	}
}

func TestShouldSuppressFuzzySimilarity(t *testing.T) {
	d := NewDeduplicator(5*time.Minute, 0.5, true)
	a1 := newTestAlert("packet loss detected at 25 percent over last window")
	a2 := newTestAlert("packet loss detected at 27 percent over last window")
	if d.ShouldSuppress(a1) {
		t.Fatal("first alert should not be suppressed")
	}
	if !d.ShouldSuppress(a2) {
		t.Fatal("similar message with same type/context should be suppressed")
	}
}

func TestShouldSuppressDifferentContextNotSuppressed(t *testing.T) {
	d := NewDeduplicator(5*time.Minute, 0.5, true)
	a1 := newTestAlert("packet loss detected")
	a2 := NewEntity(TypePacketLoss, "packet loss detected", PriorityHigh, Context{Service: "pathwatch", Component: "dns", ProblemType: "packet_loss", Target: "1.1.1.1"}, nil)
	d.ShouldSuppress(a1)
	if d.ShouldSuppress(a2) {
		t.Error("different component should not suppress (fingerprint differs, and loose context match fails)")
	}
}

func TestCleanupExpiredEntry(t *testing.T) {
	d := NewDeduplicator(10*time.Millisecond, 0.85, false)
	a := newTestAlert("packet loss")
	d.ShouldSuppress(a)
	time.Sleep(20 * time.Millisecond)
	if d.ShouldSuppress(a) {
		t.Error("expired entry should not suppress; should be treated as new")
	}
	if d.CacheSize() != 1 {
		t.Errorf("cache size = %d, want 1 after expiry cleanup re-added one entry", d.CacheSize())
	}
}

func TestCalculateSimilarityEdgeCases(t *testing.T) {
	if jaccardSimilarity("same", "same") != 1.0 {
		t.Error("identical strings should be similarity 1.0")
	}
	if jaccardSimilarity("", "") != 1.0 {
		t.Error("both empty should be similarity 1.0")
	}
	if jaccardSimilarity("hello", "") != 0.0 {
		t.Error("one empty should be similarity 0.0")
	}
	if got := jaccardSimilarity("a b c", "a b d"); got <= 0 || got >= 1 {
		t.Errorf("partial overlap similarity = %v, want in (0,1)", got)
	}
}

func TestClear(t *testing.T) {
	d := NewDeduplicator(5*time.Minute, 0.85, true)
	a := newTestAlert("packet loss")
	d.ShouldSuppress(a)
	d.ShouldSuppress(a)
	d.Clear()
	if d.CacheSize() != 0 || d.SuppressedCount() != 0 {
		t.Error("clear should reset cache and suppressed count")
	}
}
