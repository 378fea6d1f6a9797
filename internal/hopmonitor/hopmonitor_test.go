package hopmonitor

import (
	"testing"

	"github.com/pilot-net/pathwatch/internal/probe"
)

func TestParseHopIPsDedupesAndSkipsTarget(t *testing.T) {
	hops := []probe.Hop{
		{HopNumber: 1, IPOrHost: "192.168.1.1"},
		{HopNumber: 2, IPOrHost: "192.168.1.1"},
		{HopNumber: 3, IPOrHost: "1.1.1.1"},
		{HopNumber: 4, IPOrHost: "no ip here"},
	}
	out := parseHopIPs(hops, "1.1.1.1")
	if len(out) != 1 {
		t.Fatalf("got %d hops, want 1 (dedup + target skip + no-ip skip)", len(out))
	}
	if out[0].IP != "192.168.1.1" {
		t.Errorf("ip = %q, want 192.168.1.1", out[0].IP)
	}
}

func TestUpdateHopStatusTracksMinMaxAvg(t *testing.T) {
	m := &Monitor{}
	hop := &Status{HopNumber: 1, IP: "10.0.0.1"}
	m.updateHopStatus(hop, true, 10.0)
	m.updateHopStatus(hop, true, 20.0)
	m.updateHopStatus(hop, false, 0)

	if hop.MinLatencyMs != 10.0 || hop.MaxLatencyMs != 20.0 {
		t.Errorf("min/max = %v/%v, want 10/20", hop.MinLatencyMs, hop.MaxLatencyMs)
	}
	if hop.AvgLatencyMs != 15.0 {
		t.Errorf("avg = %v, want 15.0", hop.AvgLatencyMs)
	}
	if hop.LossCount != 1 || hop.TotalPings != 3 {
		t.Errorf("loss=%d total=%d, want 1/3", hop.LossCount, hop.TotalPings)
	}
	if got := hop.LossPct(); got < 33.0 || got > 34.0 {
		t.Errorf("loss pct = %v, want ~33.3", got)
	}
}
