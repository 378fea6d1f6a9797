package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pilot-net/pathwatch/internal/metricsrv"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// tracerouteDumper runs an on-demand traceroute and writes the raw
// output to disk, used both when a route change latches and when
// consecutive packet loss crosses the auto-traceroute trigger.
type tracerouteDumper struct {
	tracer  *probe.Tracer
	repo    *stats.Repository
	metrics *metricsrv.Registry
	dir     string
}

func newTracerouteDumper(tracer *probe.Tracer, repo *stats.Repository, metrics *metricsrv.Registry, dir string) *tracerouteDumper {
	return &tracerouteDumper{tracer: tracer, repo: repo, metrics: metrics, dir: dir}
}

// Save runs a traceroute to target and writes it to
// <dir>/traceroute_YYYYMMDD_HHMMSS.txt, prefixed with a small header.
func (d *tracerouteDumper) Save(ctx context.Context, target string, now time.Time) error {
	d.repo.SetTracerouteState(true, now)
	defer d.repo.SetTracerouteState(false, now)

	raw, _, err := d.tracer.RunRaw(ctx, target)
	if err != nil && raw == "" {
		return fmt.Errorf("running traceroute to %s: %w", target, err)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating traceroute directory: %w", err)
	}

	name := fmt.Sprintf("traceroute_%s.txt", now.Format("20060102_150405"))
	path := filepath.Join(d.dir, name)

	header := fmt.Sprintf("Traceroute to %s\nTime: %s\n====\n", target, now.Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(header+raw), 0o644); err != nil {
		return fmt.Errorf("writing traceroute dump: %w", err)
	}

	if d.metrics != nil {
		d.metrics.RecordTracerouteSaved()
	}
	return nil
}
