// Package problem implements the problem analyzer: precedence-ordered
// classification of the current network condition, a bounded history
// of past classifications, risk prediction, and dominant-pattern
// detection, mirroring the source system's problem_analyzer.
package problem

import (
	"time"
)

const (
	TypeNone  = "none"
	TypeISP   = "isp"
	TypeLocal = "local"
	TypeDNS   = "dns"
	TypeMTU   = "mtu"
)

const (
	PredictionStable = "stable"
	PredictionRisk   = "risk"
)

// Input is the snapshot data the classifier needs; callers build it
// from internal/stats.Snapshot plus recent ping outcomes.
type Input struct {
	DNSFailed      bool
	MTULowOrFrag   bool
	RecentResults  []bool // true = success
	ConsecutiveLosses int
	Success        int
	TotalLatencySum float64
	Jitter         float64
}

// Record is one historical classification.
type Record struct {
	Type         string
	Timestamp    time.Time
	LastLatencyMs string
	PacketLossPct float64
	Jitter        float64
}

// Analyzer classifies the current problem, predicts near-term risk,
// and detects a dominant recurring pattern across a bounded history.
type Analyzer struct {
	history        []Record
	historySize    int
	logSuppression time.Duration

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

func New(historySize int, logSuppression time.Duration) *Analyzer {
	return &Analyzer{historySize: historySize, logSuppression: logSuppression, now: time.Now}
}

// Classify determines the current problem type in priority order: DNS
// failure, then MTU issue, then packet loss (ISP vs local), then high
// average latency, then high jitter, else none. A new classification
// (other than "none") is recorded into history, subject to
// suppression of duplicate consecutive entries within the log
// suppression window.
func (a *Analyzer) Classify(in Input, lastLatencyMs string) string {
	if in.DNSFailed {
		a.record(TypeDNS, lastLatencyMs, in)
		return TypeDNS
	}
	if in.MTULowOrFrag {
		a.record(TypeMTU, lastLatencyMs, in)
		return TypeMTU
	}

	lossCount := 0
	for _, ok := range in.RecentResults {
		if !ok {
			lossCount++
		}
	}
	var lossPct float64
	if len(in.RecentResults) > 0 {
		lossPct = float64(lossCount) / float64(len(in.RecentResults)) * 100
	}
	if lossPct > 20 {
		if in.ConsecutiveLosses >= 10 {
			a.record(TypeISP, lastLatencyMs, in)
			return TypeISP
		}
		a.record(TypeLocal, lastLatencyMs, in)
		return TypeLocal
	}

	if in.Success > 0 {
		avgLatency := in.TotalLatencySum / float64(in.Success)
		if avgLatency > 200 {
			a.record(TypeISP, lastLatencyMs, in)
			return TypeISP
		}
	}

	if in.Jitter > 50 {
		a.record(TypeISP, lastLatencyMs, in)
		return TypeISP
	}

	return TypeNone
}

func (a *Analyzer) record(problemType, lastLatencyMs string, in Input) {
	now := a.now()

	if len(a.history) > 0 {
		last := a.history[len(a.history)-1]
		if last.Type == problemType && now.Sub(last.Timestamp) < a.logSuppression {
			return
		}
	}

	rec := Record{
		Type:          problemType,
		Timestamp:     now,
		LastLatencyMs: lastLatencyMs,
		Jitter:        in.Jitter,
	}
	a.history = append(a.history, rec)
	if len(a.history) > a.historySize {
		a.history = a.history[len(a.history)-a.historySize:]
	}
}

// Predict reports PredictionRisk when recent history shows at least 5
// non-none classifications in the last 10, or (once at least 20
// entries exist) when at least 3 historical problems occurred during
// the current local-time hour-of-day. Hour-of-day is deliberately
// local time, not UTC: see the design notes on this package.
func (a *Analyzer) Predict() string {
	if len(a.history) < 5 {
		return PredictionStable
	}

	recent := a.history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	problemCount := 0
	for _, r := range recent {
		if r.Type != TypeNone {
			problemCount++
		}
	}
	if problemCount >= 5 {
		return PredictionRisk
	}

	if len(a.history) >= 20 {
		currentHour := a.now().Local().Hour()
		count := 0
		for _, r := range a.history {
			if r.Timestamp.Local().Hour() == currentHour {
				count++
			}
		}
		if count >= 3 {
			return PredictionRisk
		}
	}

	return PredictionStable
}

// IdentifyPattern returns the dominant problem type's key (such as
// "isp"), not a display name, when it accounts for at least half of
// the bounded history, else "...".
func (a *Analyzer) IdentifyPattern() string {
	if len(a.history) < 10 {
		return "..."
	}

	counts := make(map[string]int)
	for _, r := range a.history {
		counts[r.Type]++
	}

	var dominant string
	var dominantCount int
	for t, c := range counts {
		if c > dominantCount {
			dominant, dominantCount = t, c
		}
	}
	if dominant == "" {
		return "..."
	}
	if float64(dominantCount) >= float64(len(a.history))*0.5 {
		return dominant
	}
	return "..."
}

// History returns a copy of the bounded classification history.
func (a *Analyzer) History() []Record {
	out := make([]Record, len(a.history))
	copy(out, a.history)
	return out
}
