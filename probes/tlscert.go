package probes

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jonwraymond/probeops/check"
)

// TLSProbe checks a host's TLS certificate: it performs a handshake and
// inspects the leaf certificate's validity window.
//
// Config keys:
// - host (required)
// - port (default 443)
// - warn_days (default 30; a leaf expiring within this window yields a
//   warning)
// - insecure_skip_verify (default false)
// - timeout (default 10s)
type TLSProbe struct{}

// Check performs the TLS handshake.
func (p *TLSProbe) Check(ctx context.Context, config map[string]any) check.Outcome {
	host := stringOpt(config, "host", "")
	if host == "" {
		return check.Failure("tls: missing host")
	}
	port := intOpt(config, "port", 443)
	warnDays := intOpt(config, "warn_days", 30)
	timeout := durationOpt(config, "timeout", 10*time.Second)

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: boolOpt(config, "insecure_skip_verify", false),
		},
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	latency := time.Since(start)
	if err != nil {
		return check.Failuref("tls: handshake with %s: %v", addr, err).WithRaw(map[string]any{
			"host": host,
			"port": port,
		})
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return check.Failuref("tls: %s presented no certificates", addr)
	}
	leaf := state.PeerCertificates[0]

	now := time.Now()
	daysLeft := int(leaf.NotAfter.Sub(now).Hours() / 24)
	raw := map[string]any{
		"host":       host,
		"port":       port,
		"subject":    leaf.Subject.CommonName,
		"issuer":     leaf.Issuer.CommonName,
		"not_before": leaf.NotBefore.UTC().Format(time.RFC3339),
		"not_after":  leaf.NotAfter.UTC().Format(time.RFC3339),
		"days_left":  daysLeft,
		"latency_ms": latencyMS(latency),
	}

	switch {
	case now.After(leaf.NotAfter):
		return check.Failuref("tls: certificate for %s expired on %s", host, leaf.NotAfter.UTC().Format(time.RFC3339)).WithRaw(raw)
	case now.Before(leaf.NotBefore):
		return check.Failuref("tls: certificate for %s is not valid until %s", host, leaf.NotBefore.UTC().Format(time.RFC3339)).WithRaw(raw)
	case daysLeft < warnDays:
		return check.Warning(fmt.Sprintf("tls: certificate for %s expires in %d days", host, daysLeft)).WithRaw(raw)
	default:
		return check.Success(fmt.Sprintf("tls: certificate for %s valid for %d more days", host, daysLeft)).WithRaw(raw)
	}
}

var _ check.Checker = (*TLSProbe)(nil)
