// Package probe implements the low-level network primitives the
// per-concern background tasks build on: ICMP ping, traceroute, local
// and path MTU discovery, DNS timing, and TTL/hop-count extraction.
package probe

import (
	"context"
	"net"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Runner executes an external command and returns its stdout and
// stderr separately. internal/procreg.Registry satisfies this.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// Pinger sends single ICMP echo requests via the system ping binary,
// falling back to a raw ICMP socket when no system ping is available.
type Pinger struct {
	runner Runner
}

func NewPinger(runner Runner) *Pinger {
	return &Pinger{runner: runner}
}

var (
	timeRe    = regexp.MustCompile(`(?i)(?:time|время)\s*[=<>]+\s*([0-9]+[.,]?[0-9]*)`)
	timeLtRe  = regexp.MustCompile(`(?i)time\s*<\s*1\s*(?:ms|мс)?`)
	avgRe     = regexp.MustCompile(`(?i)(?:Average|Среднее)\s*[=:]?\s*([0-9]+)[.,]?[0-9]*\s*(?:ms|мс)?`)
)

// Ping sends one ICMP echo to host and reports whether it succeeded
// and, if so, the observed round-trip latency in milliseconds.
func (p *Pinger) Ping(ctx context.Context, host string) (ok bool, latencyMs float64, err error) {
	isV6 := isIPv6(host)

	var stdout string
	var runErr error
	if runtime.GOOS == "windows" {
		stdout, _, runErr = p.runner.Run(ctx, "ping", "-n", "1", "-w", "1000", host)
	} else if isV6 {
		stdout, _, runErr = p.runner.Run(ctx, "ping", "-6", "-c", "1", host)
	} else {
		stdout, _, runErr = p.runner.Run(ctx, "ping", "-c", "1", host)
	}

	if runErr != nil && stdout == "" {
		return rawICMPPing(ctx, host, isV6)
	}

	return parsePingOutput(stdout, runErr == nil)
}

func parsePingOutput(stdout string, succeeded bool) (bool, float64, error) {
	if timeLtRe.MatchString(stdout) {
		return true, 0.5, nil
	}
	if m := timeRe.FindStringSubmatch(stdout); m != nil {
		v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err == nil {
			return true, v, nil
		}
	}
	if m := avgRe.FindStringSubmatch(stdout); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return true, v, nil
		}
	}
	if succeeded {
		return true, 0, nil
	}
	return false, 0, nil
}

func isIPv6(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.To4() == nil
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		return false
	}
	for _, a := range addrs {
		if parsed := net.ParseIP(a); parsed != nil && parsed.To4() == nil {
			return true
		}
	}
	return false
}

// rawICMPPing is invoked only when the system has no ping binary; it
// is implemented in icmp_raw.go using golang.org/x/net/icmp.
func rawICMPPing(ctx context.Context, host string, isV6 bool) (bool, float64, error) {
	timeout := time.Second
	return sendICMPEcho(ctx, host, isV6, timeout)
}
