package alert

import (
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/stats"
)

type fakeStatsSource struct {
	latencies []float64
	recent    []bool
	snapshot  stats.Snapshot
}

func (f fakeStatsSource) LatencyWindowValues() []float64 { return f.latencies }
func (f fakeStatsSource) RecentResultsValues() []bool     { return f.recent }
func (f fakeStatsSource) Snapshot() stats.Snapshot        { return f.snapshot }

func TestGetThresholdUsesSigmaForLatency(t *testing.T) {
	latencies := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		latencies = append(latencies, 50.0)
	}
	src := fakeStatsSource{latencies: latencies}
	a := NewAdaptiveThresholds(src, time.Hour, 2.0)
	threshold := a.GetThreshold("latency")
	if threshold < 20 || threshold > 500 {
		t.Errorf("threshold = %v, out of configured bounds", threshold)
	}
}

func TestGetThresholdFallsBackToDefaultWithoutData(t *testing.T) {
	src := fakeStatsSource{}
	a := NewAdaptiveThresholds(src, time.Hour, 2.0)
	if got := a.GetThreshold("latency"); got != 100.0 {
		t.Errorf("threshold = %v, want default 100.0 with insufficient data", got)
	}
}

func TestGetThresholdUnknownMetricReturns100(t *testing.T) {
	a := NewAdaptiveThresholds(fakeStatsSource{}, time.Hour, 2.0)
	if got := a.GetThreshold("nonexistent"); got != 100.0 {
		t.Errorf("threshold = %v, want 100.0 for unconfigured metric", got)
	}
}

func TestIsAnomalyComparesAgainstThreshold(t *testing.T) {
	a := NewAdaptiveThresholds(fakeStatsSource{}, time.Hour, 2.0)
	if !a.IsAnomaly("latency", 1000) {
		t.Error("1000ms should be anomalous against default 100ms threshold")
	}
	if a.IsAnomaly("latency", 1) {
		t.Error("1ms should not be anomalous")
	}
}

func TestCalculateBaselineStatistics(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	b := calculateBaseline(data)
	if b.Mean != 55 {
		t.Errorf("mean = %v, want 55", b.Mean)
	}
	if b.Min != 10 || b.Max != 100 {
		t.Errorf("min/max = %v/%v, want 10/100", b.Min, b.Max)
	}
	if b.SampleCount != 10 {
		t.Errorf("sample count = %d, want 10", b.SampleCount)
	}
}
