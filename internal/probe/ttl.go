package probe

import (
	"context"
	"regexp"
	"runtime"
	"strconv"
)

var ttlRe = regexp.MustCompile(`(?i)TTL[=:\s]+(\d+)`)

var commonInitialTTLs = []int{64, 128, 255}

// ExtractTTL pings host once and extracts the reply TTL, estimating
// hop count from the closest larger well-known initial TTL value
// (64, 128, 255 — the common OS defaults).
func ExtractTTL(ctx context.Context, runner Runner, host string) (ttl int, hops int, ok bool) {
	isV6 := isIPv6(host)

	var stdout string
	var err error
	if runtime.GOOS == "windows" {
		stdout, _, err = runner.Run(ctx, "ping", "-n", "1", "-w", "1000", host)
	} else if isV6 {
		stdout, _, err = runner.Run(ctx, "ping", "-6", "-c", "1", host)
	} else {
		stdout, _, err = runner.Run(ctx, "ping", "-c", "1", host)
	}
	if err != nil && stdout == "" {
		return 0, 0, false
	}

	m := ttlRe.FindStringSubmatch(stdout)
	if m == nil {
		return 0, 0, false
	}
	ttl, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0, 0, false
	}

	for _, initial := range commonInitialTTLs {
		if ttl <= initial {
			return ttl, initial - ttl, true
		}
	}
	return ttl, 0, false
}
