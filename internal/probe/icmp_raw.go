package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// sendICMPEcho sends a single ICMP echo over an unprivileged UDP ICMP
// socket, used only when no system ping binary is present. It mirrors
// the "listen udp4/udp6, write echo, read reply" idiom common across
// the pack's own ICMP tooling, trimmed to a single blocking round trip.
func sendICMPEcho(ctx context.Context, host string, isV6 bool, timeout time.Duration) (bool, float64, error) {
	network := "udp4"
	listenAddr := "0.0.0.0"
	proto := ipv4.ICMPTypeEcho
	if isV6 {
		network = "udp6"
		listenAddr = "::"
		proto = ipv6.ICMPTypeEchoRequest
	}

	conn, err := icmp.ListenPacket(network, listenAddr)
	if err != nil {
		return false, 0, fmt.Errorf("opening icmp socket: %w", err)
	}
	defer conn.Close()

	ripType := "ip4"
	if isV6 {
		ripType = "ip6"
	}
	dst, err := net.ResolveIPAddr(ripType, host)
	if err != nil {
		return false, 0, fmt.Errorf("resolving %s: %w", host, err)
	}

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: proto,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: 1, Data: []byte("pathwatch")},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, 0, fmt.Errorf("marshaling icmp echo: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok || deadline.After(time.Now().Add(timeout)) {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false, 0, fmt.Errorf("setting deadline: %w", err)
	}

	start := time.Now()
	if _, err := conn.WriteTo(wb, &net.UDPAddr{IP: dst.IP}); err != nil {
		return false, 0, fmt.Errorf("writing icmp echo: %w", err)
	}

	rb := make([]byte, 1500)
	n, _, err := conn.ReadFrom(rb)
	if err != nil {
		if os.IsTimeout(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("reading icmp reply: %w", err)
	}
	elapsed := time.Since(start)

	protoNum := 1
	if isV6 {
		protoNum = 58
	}
	reply, err := icmp.ParseMessage(protoNum, rb[:n])
	if err != nil {
		return false, 0, fmt.Errorf("parsing icmp reply: %w", err)
	}
	switch reply.Type {
	case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
		return true, float64(elapsed.Microseconds()) / 1000.0, nil
	default:
		return false, 0, nil
	}
}
