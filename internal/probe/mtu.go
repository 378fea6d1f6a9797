package probe

import (
	"context"
	"runtime"
	"strconv"

	gopsnet "github.com/shirou/gopsutil/v3/net"
)

// MTUChecker discovers the local interface MTU and, via binary search
// over ping payload sizes with the don't-fragment flag set, the path
// MTU to a target.
type MTUChecker struct {
	runner Runner
}

func NewMTUChecker(runner Runner) *MTUChecker {
	return &MTUChecker{runner: runner}
}

// LocalMTU returns the MTU of the first active, non-loopback network
// interface reported by the OS. This replaces the source system's
// PowerShell/`ip link` shell-outs with gopsutil's cross-platform
// interface query.
func (m *MTUChecker) LocalMTU() (int, bool) {
	ifaces, err := gopsnet.Interfaces()
	if err != nil {
		return 0, false
	}
	for _, iface := range ifaces {
		isUp := false
		isLoopback := false
		for _, f := range iface.Flags {
			switch f {
			case "up":
				isUp = true
			case "loopback":
				isLoopback = true
			}
		}
		if isUp && !isLoopback && iface.MTU > 0 {
			mtu := iface.MTU
			if mtu < 500 {
				mtu = 500
			}
			if mtu > 9000 {
				mtu = 9000
			}
			return mtu, true
		}
	}
	return 0, false
}

// DiscoverPathMTU binary-searches ping payload sizes (DF set) between
// 500 and limit bytes total MTU, returning the largest MTU that gets
// through without fragmentation.
func (m *MTUChecker) DiscoverPathMTU(ctx context.Context, target string, isV6 bool, limit int) (int, bool) {
	overhead := 28
	if isV6 {
		overhead = 48
	}

	low, high := 500, limit
	searchLow := low - overhead
	searchHigh := high - overhead

	for searchLow <= searchHigh {
		mid := (searchLow + searchHigh) / 2

		ok := m.probeSize(ctx, target, isV6, mid)
		if ok {
			searchLow = mid + 1
		} else {
			searchHigh = mid - 1
		}
	}

	finalMTU := searchHigh + overhead
	if finalMTU < 500 {
		return 0, false
	}
	return finalMTU, true
}

func (m *MTUChecker) probeSize(ctx context.Context, target string, isV6 bool, payloadSize int) bool {
	var err error
	size := strconv.Itoa(payloadSize)

	if runtime.GOOS == "windows" {
		_, _, err = m.runner.Run(ctx, "ping", "-n", "1", "-f", "-l", size, target)
	} else if isV6 {
		_, _, err = m.runner.Run(ctx, "ping", "-6", "-c", "1", "-M", "do", "-s", size, target)
	} else {
		_, _, err = m.runner.Run(ctx, "ping", "-c", "1", "-M", "do", "-s", size, target)
	}
	return err == nil
}
