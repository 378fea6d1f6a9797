// Package route implements the route analyzer: problematic-hop
// identification and index-aligned route diffing with a bounded
// history, the same algorithm as the source system's route_analyzer.
package route

import (
	"math"
	"time"

	"github.com/pilot-net/pathwatch/internal/probe"
)

// Record is one analyzed route, kept in a bounded history.
type Record struct {
	Timestamp      time.Time
	Hops           []probe.Hop
	HopCount       int
	ProblematicHop int
	HasProblematic bool
	AvgLatency     float64
	HasAvgLatency  bool
	RouteChanged   bool
	DiffCount      int
	DiffIndices    []int
}

// Analyzer tracks the last observed route and a bounded history of
// past analyses.
type Analyzer struct {
	hopTimeoutThresholdMs float64
	historySize           int

	lastRoute []probe.Hop
	history   []Record
}

func New(hopTimeoutThresholdMs float64, historySize int) *Analyzer {
	return &Analyzer{
		hopTimeoutThresholdMs: hopTimeoutThresholdMs,
		historySize:           historySize,
	}
}

// IdentifyProblematicHop returns the hop number of the first hop that
// looks like a genuine path problem, or (0, false) if none does.
// Single-timeout hops are common (routers silently dropping ICMP) and
// are deliberately not flagged; two consecutive timeout-only hops are.
func (a *Analyzer) IdentifyProblematicHop(hops []probe.Hop) (int, bool) {
	consecutiveTimeouts := 0
	for _, h := range hops {
		if h.IsTimeout && !h.HasLatency {
			consecutiveTimeouts++
			if consecutiveTimeouts >= 2 {
				return h.HopNumber, true
			}
			continue
		}
		consecutiveTimeouts = 0

		if h.HasLatency && h.AvgLatency > a.hopTimeoutThresholdMs {
			return h.HopNumber, true
		}

		if len(h.Latencies) >= 2 {
			if stddev(h.Latencies) > 100 {
				return h.HopNumber, true
			}
		}
	}
	return 0, false
}

// CompareRoutes diffs hops against the last observed route by index,
// reporting whether the route changed, how many positions differ, and
// which indices they are. The first call against an empty baseline
// always reports no change.
func (a *Analyzer) CompareRoutes(hops []probe.Hop) (changed bool, diffCount int, diffIndices []int) {
	if len(a.lastRoute) == 0 {
		a.lastRoute = hops
		return false, 0, nil
	}

	minLen := len(hops)
	if len(a.lastRoute) < minLen {
		minLen = len(a.lastRoute)
	}
	for i := 0; i < minLen; i++ {
		if hops[i].IPOrHost != a.lastRoute[i].IPOrHost {
			diffIndices = append(diffIndices, i)
		}
	}
	maxLen := len(hops)
	if len(a.lastRoute) > maxLen {
		maxLen = len(a.lastRoute)
	}
	for i := minLen; i < maxLen; i++ {
		diffIndices = append(diffIndices, i)
	}

	changed = len(diffIndices) > 0
	a.lastRoute = hops
	return changed, len(diffIndices), diffIndices
}

// Analyze runs problematic-hop identification and route comparison,
// appends the result to the bounded history, and returns it.
func (a *Analyzer) Analyze(hops []probe.Hop) Record {
	problematicHop, hasProblematic := a.IdentifyProblematicHop(hops)
	changed, diffCount, diffIndices := a.CompareRoutes(hops)

	var latencies []float64
	for _, h := range hops {
		if h.HasLatency {
			latencies = append(latencies, h.AvgLatency)
		}
	}

	rec := Record{
		Timestamp:      time.Now(),
		Hops:           hops,
		HopCount:       len(hops),
		ProblematicHop: problematicHop,
		HasProblematic: hasProblematic,
		RouteChanged:   changed,
		DiffCount:      diffCount,
		DiffIndices:    diffIndices,
	}
	if len(latencies) > 0 {
		rec.AvgLatency = mean(latencies)
		rec.HasAvgLatency = true
	}

	a.history = append(a.history, rec)
	if len(a.history) > a.historySize {
		a.history = a.history[len(a.history)-a.historySize:]
	}

	return rec
}

// History returns a copy of the bounded route-analysis history.
func (a *Analyzer) History() []Record {
	out := make([]Record, len(a.history))
	copy(out, a.history)
	return out
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := mean(vs)
	var sumSq float64
	for _, v := range vs {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vs)-1))
}
