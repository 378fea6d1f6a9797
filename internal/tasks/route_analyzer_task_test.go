package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/route"
	"github.com/pilot-net/pathwatch/internal/stats"
)

const traceOutputA = `traceroute to 1.1.1.1, 15 hops max
 1  192.168.1.1  1.000 ms
 2  10.0.0.1  5.000 ms
 3  1.1.1.1  10.000 ms
`

const traceOutputB = `traceroute to 1.1.1.1, 15 hops max
 1  192.168.1.1  1.000 ms
 2  172.16.0.1  5.000 ms
 3  1.1.1.1  10.000 ms
`

func routeCfg() config.RouteConfig {
	return config.RouteConfig{
		AnalysisInterval: time.Minute, HistorySize: 10, HopTimeoutThresholdMs: 3000,
		ChangeConsecutive: 2, ChangeHopDiff: 1, IgnoreFirstHops: 0, SaveOnChangeConsecutive: 2,
	}
}

func TestRouteAnalyzerTaskLatchesChangeAfterConsecutiveSignificantDiffs(t *testing.T) {
	runner := &fakeRunner{responses: []fakeResponse{
		{stdout: traceOutputA}, // baseline
		{stdout: traceOutputB}, // 1st significant diff (vs A)
		{stdout: traceOutputA}, // 2nd significant diff (vs B) -> latches
	}}
	tracer := probe.NewTracer(runner, 15)
	analyzer := route.New(3000, 10)
	repo := stats.New(1800, 600, 50)
	mgr := testAlertManager()
	cfg := routeCfg()

	var traceSaveTriggered bool
	task := NewRouteAnalyzerTask(tracer, analyzer, repo, mgr, "1.1.1.1", cfg, 10, func(string) { traceSaveTriggered = true }, testLogger())

	for i := 0; i < 3; i++ {
		if err := task.Execute(context.Background()); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}

	if !repo.IsRouteChanged() {
		t.Error("expected route change to be latched after consecutive significant diffs")
	}
	if !traceSaveTriggered {
		t.Error("expected a traceroute save trigger once consecutive changes reach SaveOnChangeConsecutive")
	}
}

func TestRouteAnalyzerTaskNoChangeOnStableRoute(t *testing.T) {
	runner := &fakeRunner{responses: []fakeResponse{
		{stdout: traceOutputA}, {stdout: traceOutputA}, {stdout: traceOutputA},
	}}
	tracer := probe.NewTracer(runner, 15)
	analyzer := route.New(3000, 10)
	repo := stats.New(1800, 600, 50)
	mgr := testAlertManager()
	cfg := routeCfg()

	task := NewRouteAnalyzerTask(tracer, analyzer, repo, mgr, "1.1.1.1", cfg, 10, nil, testLogger())
	for i := 0; i < 3; i++ {
		_ = task.Execute(context.Background())
	}

	if repo.IsRouteChanged() {
		t.Error("expected no route change on a stable route")
	}
}
