package alert

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pilot-net/pathwatch/internal/stats"
)

// ThresholdConfig configures how one metric's adaptive threshold is derived.
type ThresholdConfig struct {
	MetricName     string
	DefaultValue   float64
	MinValue       float64
	MaxValue       float64
	SigmaMultiplier float64
	Percentile      float64
	UsePercentile   bool
}

// Baseline holds the statistical summary used to derive a threshold.
type Baseline struct {
	Mean        float64
	StdDev      float64
	Median      float64
	P95         float64
	P99         float64
	Min         float64
	Max         float64
	SampleCount int
	LastUpdated time.Time
}

// StatsSource is the subset of stats.Repository that adaptive thresholds
// read historical data from.
type StatsSource interface {
	LatencyWindowValues() []float64
	RecentResultsValues() []bool
	Snapshot() stats.Snapshot
}

func defaultThresholdConfigs() map[string]ThresholdConfig {
	return map[string]ThresholdConfig{
		"latency": {
			MetricName: "latency", DefaultValue: 100, MinValue: 20, MaxValue: 500,
			SigmaMultiplier: 2.0,
		},
		"avg_latency": {
			MetricName: "avg_latency", DefaultValue: 100, MinValue: 20, MaxValue: 300,
			SigmaMultiplier: 2.0,
		},
		"packet_loss": {
			MetricName: "packet_loss", DefaultValue: 5, MinValue: 1, MaxValue: 20,
			Percentile: 95.0, UsePercentile: true,
		},
		"jitter": {
			MetricName: "jitter", DefaultValue: 30, MinValue: 10, MaxValue: 100,
			SigmaMultiplier: 2.0,
		},
	}
}

// AdaptiveThresholds derives per-metric thresholds from rolling baseline
// statistics rather than fixed constants, recalculating each baseline
// periodically from recent history.
type AdaptiveThresholds struct {
	mu sync.Mutex

	source         StatsSource
	updateInterval time.Duration
	anomalySigma   float64

	configs    map[string]ThresholdConfig
	baselines  map[string]Baseline
	lastUpdate map[string]time.Time
}

func NewAdaptiveThresholds(source StatsSource, updateInterval time.Duration, anomalySigma float64) *AdaptiveThresholds {
	a := &AdaptiveThresholds{
		source:         source,
		updateInterval: updateInterval,
		anomalySigma:   anomalySigma,
		configs:        defaultThresholdConfigs(),
		baselines:      make(map[string]Baseline),
		lastUpdate:     make(map[string]time.Time),
	}
	for metric := range a.configs {
		a.updateBaseline(metric)
	}
	return a
}

// GetThreshold returns the current adaptive threshold for metric,
// refreshing the baseline first if it is stale.
func (a *AdaptiveThresholds) GetThreshold(metric string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.shouldUpdateBaseline(metric) {
		a.updateBaseline(metric)
	}

	config, hasConfig := a.configs[metric]
	baseline, hasBaseline := a.baselines[metric]
	if !hasConfig {
		return 100.0
	}
	if !hasBaseline {
		return config.DefaultValue
	}

	var threshold float64
	if config.UsePercentile {
		threshold = baseline.P95
	} else {
		threshold = baseline.Mean + config.SigmaMultiplier*baseline.StdDev
	}
	if threshold < config.MinValue {
		threshold = config.MinValue
	}
	if threshold > config.MaxValue {
		threshold = config.MaxValue
	}
	return threshold
}

// IsAnomaly reports whether value exceeds metric's adaptive threshold.
func (a *AdaptiveThresholds) IsAnomaly(metric string, value float64) bool {
	return value > a.GetThreshold(metric)
}

func (a *AdaptiveThresholds) shouldUpdateBaseline(metric string) bool {
	last, ok := a.lastUpdate[metric]
	if !ok {
		return true
	}
	return time.Since(last) >= a.updateInterval
}

func (a *AdaptiveThresholds) updateBaseline(metric string) {
	data := a.historicalData(metric)
	if len(data) < 10 {
		return
	}
	a.baselines[metric] = calculateBaseline(data)
	a.lastUpdate[metric] = time.Now().UTC()
}

func (a *AdaptiveThresholds) historicalData(metric string) []float64 {
	switch metric {
	case "latency":
		return a.source.LatencyWindowValues()
	case "avg_latency":
		snap := a.source.Snapshot()
		if snap.Success > 0 {
			return []float64{snap.TotalLatencySum / float64(snap.Success)}
		}
		return nil
	case "packet_loss":
		results := a.source.RecentResultsValues()
		windowSize := 30
		if len(results) < windowSize {
			return nil
		}
		var lossValues []float64
		for i := 0; i <= len(results)-windowSize; i++ {
			window := results[i : i+windowSize]
			failures := 0
			for _, ok := range window {
				if !ok {
					failures++
				}
			}
			lossValues = append(lossValues, float64(failures)/float64(windowSize)*100)
		}
		return lossValues
	case "jitter":
		snap := a.source.Snapshot()
		if snap.Jitter > 0 {
			return []float64{snap.Jitter}
		}
		return nil
	}
	return nil
}

func calculateBaseline(data []float64) Baseline {
	n := len(data)
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)

	var stdDev float64
	if n > 1 {
		var sq float64
		for _, v := range data {
			d := v - mean
			sq += d * d
		}
		stdDev = math.Sqrt(sq / float64(n-1))
	}

	median := medianOf(sorted)

	p95Idx := int(float64(n) * 0.95)
	p99Idx := int(float64(n) * 0.99)
	p95 := sorted[len(sorted)-1]
	if p95Idx < len(sorted) {
		p95 = sorted[p95Idx]
	}
	p99 := sorted[len(sorted)-1]
	if p99Idx < len(sorted) {
		p99 = sorted[p99Idx]
	}

	return Baseline{
		Mean: mean, StdDev: stdDev, Median: median, P95: p95, P99: p99,
		Min: sorted[0], Max: sorted[len(sorted)-1], SampleCount: n, LastUpdated: time.Now().UTC(),
	}
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// UpdateBaselines forces a recalculation of every configured metric's baseline.
func (a *AdaptiveThresholds) UpdateBaselines() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for metric := range a.configs {
		a.updateBaseline(metric)
	}
}

// GetBaseline returns the current baseline for metric, if one has been computed.
func (a *AdaptiveThresholds) GetBaseline(metric string) (Baseline, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.baselines[metric]
	return b, ok
}

// AllBaselines returns a copy of every computed baseline.
func (a *AdaptiveThresholds) AllBaselines() map[string]Baseline {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Baseline, len(a.baselines))
	for k, v := range a.baselines {
		out[k] = v
	}
	return out
}

// Clear resets all baselines.
func (a *AdaptiveThresholds) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baselines = make(map[string]Baseline)
	a.lastUpdate = make(map[string]time.Time)
}
