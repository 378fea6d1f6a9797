package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/problem"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// ProblemAnalyzerTask periodically classifies the current network
// condition from recent stats, predicts near-term risk, and detects a
// dominant recurring pattern.
type ProblemAnalyzerTask struct {
	analyzer *problem.Analyzer
	repo     *stats.Repository
	interval time.Duration
	logger   *slog.Logger
}

func NewProblemAnalyzerTask(analyzer *problem.Analyzer, repo *stats.Repository, interval time.Duration, logger *slog.Logger) *ProblemAnalyzerTask {
	return &ProblemAnalyzerTask{analyzer: analyzer, repo: repo, interval: interval, logger: logger}
}

func (t *ProblemAnalyzerTask) Name() string           { return "problem_analyzer" }
func (t *ProblemAnalyzerTask) Interval() time.Duration { return t.interval }
func (t *ProblemAnalyzerTask) Enabled() bool          { return true }
func (t *ProblemAnalyzerTask) Setup(ctx context.Context) error { return nil }

func (t *ProblemAnalyzerTask) Execute(ctx context.Context) error {
	snap := t.repo.Snapshot()

	in := problem.Input{
		DNSFailed:       snap.DNSStatus == "failed",
		MTULowOrFrag:    snap.MTUStatus == mtuStatusLow || snap.MTUStatus == mtuStatusFragmented,
		RecentResults:   snap.RecentResults,
		ConsecutiveLosses: snap.ConsecutiveLosses,
		Success:         snap.Success,
		TotalLatencySum: snap.TotalLatencySum,
		Jitter:          snap.Jitter,
	}

	problemType := t.analyzer.Classify(in, snap.LastLatencyMs)
	prediction := t.analyzer.Predict()
	pattern := t.analyzer.IdentifyPattern()

	t.repo.UpdateProblemAnalysis(problemType, prediction, pattern)
	return nil
}
