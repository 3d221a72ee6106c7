package probes

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ping/ping"

	"github.com/jonwraymond/probeops/check"
)

// PingProbe checks basic reachability with ICMP echo requests.
//
// Config keys:
// - host (required)
// - count (default 3)
// - privileged (default false; set true when raw sockets are available)
// - timeout (default 5s)
//
// Partial packet loss yields a warning; total loss an error.
type PingProbe struct{}

// Check sends the echo requests.
func (p *PingProbe) Check(ctx context.Context, config map[string]any) check.Outcome {
	host := stringOpt(config, "host", "")
	if host == "" {
		return check.Failure("ping: missing host")
	}
	count := intOpt(config, "count", 3)
	if count < 1 {
		count = 1
	}
	timeout := durationOpt(config, "timeout", 5*time.Second)

	pinger, err := ping.NewPinger(host)
	if err != nil {
		return check.Failuref("ping: resolving %s: %v", host, err)
	}
	pinger.Count = count
	pinger.Timeout = timeout
	pinger.SetPrivileged(boolOpt(config, "privileged", false))

	// pinger.Run blocks; stop it if the context is cut off first.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return check.Failuref("ping: %s: %v", host, err).WithRaw(map[string]any{
			"host": host,
		})
	}

	stats := pinger.Statistics()
	raw := map[string]any{
		"host":         host,
		"address":      stats.IPAddr.String(),
		"packets_sent": stats.PacketsSent,
		"packets_recv": stats.PacketsRecv,
		"packet_loss":  stats.PacketLoss,
		"rtt_min_ms":   latencyMS(stats.MinRtt),
		"rtt_avg_ms":   latencyMS(stats.AvgRtt),
		"rtt_max_ms":   latencyMS(stats.MaxRtt),
	}

	switch {
	case stats.PacketsRecv == 0:
		return check.Failuref("ping: %s unreachable, %d/%d packets lost", host, stats.PacketsSent, stats.PacketsSent).WithRaw(raw)
	case stats.PacketLoss > 0:
		return check.Warning(fmt.Sprintf("ping: %s reachable with %.0f%% packet loss", host, stats.PacketLoss)).WithRaw(raw)
	default:
		return check.Success(fmt.Sprintf("ping: %s avg rtt %s over %d packets", host, stats.AvgRtt.Round(time.Microsecond), stats.PacketsRecv)).WithRaw(raw)
	}
}

var _ check.Checker = (*PingProbe)(nil)
