// Package hopmonitor discovers the hops along a path via traceroute
// and pings each independently, tracking per-hop latency and loss.
package hopmonitor

import (
	"context"
	"regexp"
	"sync"

	"github.com/pilot-net/pathwatch/internal/probe"
)

const latencyHistorySize = 30

// Status is the running state of one monitored hop.
type Status struct {
	HopNumber      int
	IP             string
	Hostname       string
	LastLatencyMs  float64
	HasLastLatency bool
	AvgLatencyMs   float64
	MinLatencyMs   float64
	MaxLatencyMs   float64
	LossCount      int
	TotalPings     int
	LastOK         bool
	latencyHistory []float64
}

// LossPct is the percentage of pings to this hop that failed.
func (s *Status) LossPct() float64 {
	if s.TotalPings == 0 {
		return 0
	}
	return float64(s.LossCount) / float64(s.TotalPings) * 100
}

var ipRe = regexp.MustCompile(`\[?((?:\d{1,3}\.){3}\d{1,3})\]?`)

// Monitor discovers hops for a target via internal/probe.Tracer and
// pings every known hop once per PingAllHops call.
type Monitor struct {
	mu           sync.RWMutex
	tracer       *probe.Tracer
	pinger       *probe.Pinger
	targetIP     string
	hops         []*Status
	discovered   bool
	discovering  bool
	rediscover   bool
}

// RequestRediscovery flags that the next scheduling decision should
// force a fresh traceroute, regardless of the rediscover interval
// (used when the public IP changes).
func (m *Monitor) RequestRediscovery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rediscover = true
}

// ConsumeRediscoveryRequest reports whether rediscovery was requested
// and clears the flag.
func (m *Monitor) ConsumeRediscoveryRequest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	requested := m.rediscover
	m.rediscover = false
	return requested
}

func NewMonitor(tracer *probe.Tracer, pinger *probe.Pinger, targetIP string) *Monitor {
	return &Monitor{tracer: tracer, pinger: pinger, targetIP: targetIP}
}

// DiscoverHops runs a traceroute to target and replaces the monitored
// hop set with what it finds.
func (m *Monitor) DiscoverHops(ctx context.Context, target string) ([]*Status, error) {
	m.mu.Lock()
	m.discovering = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.discovering = false
		m.mu.Unlock()
	}()

	traceHops, err := m.tracer.Run(ctx, target)
	if err != nil {
		return nil, err
	}

	hops := parseHopIPs(traceHops, m.targetIP)

	m.mu.Lock()
	m.hops = hops
	m.discovered = true
	m.mu.Unlock()

	return hops, nil
}

func parseHopIPs(traceHops []probe.Hop, targetIP string) []*Status {
	seen := make(map[string]bool)
	var out []*Status
	for _, h := range traceHops {
		ip := extractIP(h.IPOrHost)
		if ip == "" || seen[ip] || ip == targetIP {
			continue
		}
		seen[ip] = true
		out = append(out, &Status{HopNumber: h.HopNumber, IP: ip, Hostname: ip, LastOK: true})
	}
	return out
}

func extractIP(s string) string {
	m := ipRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// PingAllHops pings every discovered hop once, updating its rolling
// latency/loss statistics.
func (m *Monitor) PingAllHops(ctx context.Context) {
	m.mu.RLock()
	hops := make([]*Status, len(m.hops))
	copy(hops, m.hops)
	m.mu.RUnlock()

	for _, hop := range hops {
		ok, latency, _ := m.pinger.Ping(ctx, hop.IP)
		m.updateHopStatus(hop, ok, latency)
	}
}

func (m *Monitor) updateHopStatus(hop *Status, ok bool, latency float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hop.TotalPings++
	hop.LastOK = ok
	if ok {
		hop.LastLatencyMs = latency
		hop.HasLastLatency = true
		hop.latencyHistory = append(hop.latencyHistory, latency)
		if len(hop.latencyHistory) > latencyHistorySize {
			hop.latencyHistory = hop.latencyHistory[len(hop.latencyHistory)-latencyHistorySize:]
		}
		if hop.MinLatencyMs == 0 || latency < hop.MinLatencyMs {
			hop.MinLatencyMs = latency
		}
		if latency > hop.MaxLatencyMs {
			hop.MaxLatencyMs = latency
		}
		var sum float64
		for _, v := range hop.latencyHistory {
			sum += v
		}
		hop.AvgLatencyMs = sum / float64(len(hop.latencyHistory))
	} else {
		hop.LossCount++
		hop.HasLastLatency = false
	}
}

// Snapshot returns a copy of current hop statuses for external consumers.
func (m *Monitor) Snapshot() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, len(m.hops))
	for i, h := range m.hops {
		out[i] = *h
	}
	return out
}

func (m *Monitor) IsDiscovered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.discovered
}

func (m *Monitor) IsDiscovering() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.discovering
}

func (m *Monitor) HopCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hops)
}
