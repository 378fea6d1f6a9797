package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pilot-net/pathwatch/internal/alert"
	"github.com/pilot-net/pathwatch/internal/hopmonitor"
	"github.com/pilot-net/pathwatch/internal/ipinfo"
	"github.com/pilot-net/pathwatch/internal/stats"
)

// IPUpdaterTask periodically checks the public IP/geolocation and, on
// change, records it and requests a hop-monitor rediscovery (the path
// a new public IP takes may well differ from the old one).
type IPUpdaterTask struct {
	checker *ipinfo.Checker
	repo    *stats.Repository
	mgr     *alert.Manager
	hops    *hopmonitor.Monitor // nil if hop monitoring is disabled
	interval time.Duration
	logger  *slog.Logger
}

func NewIPUpdaterTask(checker *ipinfo.Checker, repo *stats.Repository, mgr *alert.Manager, hops *hopmonitor.Monitor, interval time.Duration, logger *slog.Logger) *IPUpdaterTask {
	return &IPUpdaterTask{checker: checker, repo: repo, mgr: mgr, hops: hops, interval: interval, logger: logger}
}

func (t *IPUpdaterTask) Name() string           { return "ip_updater" }
func (t *IPUpdaterTask) Interval() time.Duration { return t.interval }
func (t *IPUpdaterTask) Enabled() bool          { return true }
func (t *IPUpdaterTask) Setup(ctx context.Context) error { return nil }

func (t *IPUpdaterTask) Execute(ctx context.Context) error {
	info, _ := t.checker.Lookup(ctx)

	if change := t.checker.CheckChange(info); change != nil {
		entity := alert.NewEntity(alert.TypeIPChange,
			fmt.Sprintf("public IP changed from %s to %s", change.OldIP, change.NewIP),
			alert.PriorityLow,
			alert.Context{Service: "ip", Component: "public_ip", ProblemType: "ip_change"}, nil)
		t.mgr.ProcessAlert(&entity)
		if t.hops != nil {
			t.hops.RequestRediscovery()
		}
	}

	t.repo.UpdatePublicIP(info.IP, info.Country, info.CountryCode)
	return nil
}
