package probe

import (
	"context"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// Hop is one parsed traceroute line.
type Hop struct {
	HopNumber  int
	IPOrHost   string
	Latencies  []float64
	AvgLatency float64
	MaxLatency float64
	HasLatency bool
	IsTimeout  bool
}

// Tracer runs the system traceroute/tracert binary and parses its
// output into a hop list.
type Tracer struct {
	runner  Runner
	maxHops int
}

func NewTracer(runner Runner, maxHops int) *Tracer {
	return &Tracer{runner: runner, maxHops: maxHops}
}

// Run executes a traceroute to target and returns the parsed hops.
func (t *Tracer) Run(ctx context.Context, target string) ([]Hop, error) {
	out, _, err := t.runRaw(ctx, target)
	if err != nil && out == "" {
		return nil, err
	}
	return ParseTracerouteOutput(out), nil
}

// RunRaw executes a traceroute to target and returns both the raw
// stdout text and the parsed hops, for callers that persist the raw
// output alongside the structured result.
func (t *Tracer) RunRaw(ctx context.Context, target string) (raw string, hops []Hop, err error) {
	out, _, err := t.runRaw(ctx, target)
	if err != nil && out == "" {
		return "", nil, err
	}
	return out, ParseTracerouteOutput(out), nil
}

func (t *Tracer) runRaw(ctx context.Context, target string) (stdout, stderr string, err error) {
	if runtime.GOOS == "windows" {
		return t.runner.Run(ctx, "tracert", "-h", strconv.Itoa(t.maxHops), "-w", "1000", target)
	}
	return t.runner.Run(ctx, "traceroute", "-m", strconv.Itoa(t.maxHops), "-w", "1", target)
}

var (
	hopNumberRe = regexp.MustCompile(`^\s*(\d+)\s`)
	latencyRe   = regexp.MustCompile(`(?i)(?:<|=)?\s*(\d+(?:\.\d+)?)\s*ms`)
)

// ParseTracerouteOutput parses raw traceroute/tracert text into a hop
// list, tolerant of both Linux and Windows formats and of "<1 ms" /
// "=10ms" latency notations.
func ParseTracerouteOutput(output string) []Hop {
	var hops []Hop
	isWindows := runtime.GOOS == "windows"

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "Traceroute") || strings.HasPrefix(line, "Hops") {
			continue
		}

		m := hopNumberRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		hopNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		var latencies []float64
		for _, lm := range latencyRe.FindAllStringSubmatch(line, -1) {
			if v, err := strconv.ParseFloat(lm[1], 64); err == nil {
				latencies = append(latencies, v)
			}
		}

		ipOrHost := "*"
		parts := strings.Fields(line)
		if isWindows {
			if len(parts) > 1 {
				candidate := strings.ToLower(parts[len(parts)-1])
				switch candidate {
				case "ms", "out.", "out", "request", "*":
				default:
					ipOrHost = parts[len(parts)-1]
				}
			}
		} else {
			if len(parts) > 1 && parts[1] != "*" {
				ipOrHost = parts[1]
			}
		}
		ipOrHost = strings.Trim(ipOrHost, "()")

		hop := Hop{HopNumber: hopNum, IPOrHost: ipOrHost}
		if len(latencies) > 0 {
			hop.Latencies = latencies
			hop.HasLatency = true
			hop.AvgLatency = mean(latencies)
			hop.MaxLatency = max(latencies)
		}
		hop.IsTimeout = !hop.HasLatency && (strings.Contains(line, "*") || strings.Contains(strings.ToLower(line), "time"))

		hops = append(hops, hop)
	}
	return hops
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func max(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
