package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/probe"
	"github.com/pilot-net/pathwatch/internal/stats"
)

const dnsCheckDomain = "cloudflare.com"

// DNSMonitorTask periodically resolves a well-known domain and,
// optionally, runs a DNS-over-server benchmark.
type DNSMonitorTask struct {
	checker *probe.DNSChecker
	repo    *stats.Repository
	cfg     config.DNSConfig
	logger  *slog.Logger
}

func NewDNSMonitorTask(checker *probe.DNSChecker, repo *stats.Repository, cfg config.DNSConfig, logger *slog.Logger) *DNSMonitorTask {
	return &DNSMonitorTask{checker: checker, repo: repo, cfg: cfg, logger: logger}
}

func (t *DNSMonitorTask) Name() string           { return "dns_monitor" }
func (t *DNSMonitorTask) Interval() time.Duration { return t.cfg.CheckInterval }
func (t *DNSMonitorTask) Enabled() bool          { return true }
func (t *DNSMonitorTask) Setup(ctx context.Context) error { return nil }

func (t *DNSMonitorTask) Execute(ctx context.Context) error {
	ok, ms, status := t.checker.CheckResolve(ctx, dnsCheckDomain)
	t.repo.UpdateDNS(ms, ok, status)

	if t.cfg.EnableBenchmark {
		results := t.checker.RunBenchmark(ctx, t.cfg.BenchmarkDomain, t.cfg.BenchmarkServers)
		if len(results) == 0 {
			t.logger.Debug("dns benchmark returned no results")
		}
	}
	return nil
}
