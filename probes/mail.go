package probes

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/probeops/check"
)

// MailProbe checks a mail server by completing the protocol greeting:
// EHLO/QUIT for SMTP, or the banner line for IMAP and POP3.
//
// Config keys:
// - host (required)
// - protocol (smtp|imap|pop3, default smtp)
// - port (default 25 for smtp, 143 for imap, 110 for pop3)
// - timeout (default 10s)
type MailProbe struct{}

const mailHeloName = "probeops.invalid"

// Check performs the handshake.
func (p *MailProbe) Check(ctx context.Context, config map[string]any) check.Outcome {
	host := stringOpt(config, "host", "")
	if host == "" {
		return check.Failure("mail: missing host")
	}
	protocol := strings.ToLower(stringOpt(config, "protocol", "smtp"))
	timeout := durationOpt(config, "timeout", 10*time.Second)

	var defaultPort int
	switch protocol {
	case "smtp":
		defaultPort = 25
	case "imap":
		defaultPort = 143
	case "pop3":
		defaultPort = 110
	default:
		return check.Failuref("mail: unsupported protocol %q", protocol)
	}
	port := intOpt(config, "port", defaultPort)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: timeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return check.Failuref("mail: connecting to %s: %v", addr, err).WithRaw(map[string]any{
			"host":     host,
			"port":     port,
			"protocol": protocol,
		})
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	raw := map[string]any{
		"host":     host,
		"port":     port,
		"protocol": protocol,
	}

	if protocol == "smtp" {
		client, err := smtp.NewClient(conn, host)
		if err != nil {
			return check.Failuref("mail: smtp greeting from %s: %v", addr, err).WithRaw(raw)
		}
		defer client.Close()
		if err := client.Hello(mailHeloName); err != nil {
			return check.Failuref("mail: EHLO to %s: %v", addr, err).WithRaw(raw)
		}
		_ = client.Quit()
		raw["latency_ms"] = latencyMS(time.Since(start))
		return check.Success(fmt.Sprintf("mail: smtp handshake with %s completed", addr)).WithRaw(raw)
	}

	greeting, err := bufio.NewReader(conn).ReadString('\n')
	raw["latency_ms"] = latencyMS(time.Since(start))
	if err != nil {
		return check.Failuref("mail: reading %s greeting from %s: %v", protocol, addr, err).WithRaw(raw)
	}
	greeting = strings.TrimRight(greeting, "\r\n")
	raw["greeting"] = greeting

	wantPrefix := "+OK"
	if protocol == "imap" {
		wantPrefix = "* OK"
	}
	if !strings.HasPrefix(greeting, wantPrefix) {
		return check.Failuref("mail: unexpected %s greeting from %s: %q", protocol, addr, greeting).WithRaw(raw)
	}

	return check.Success(fmt.Sprintf("mail: %s greeting from %s accepted", protocol, addr)).WithRaw(raw)
}

var _ check.Checker = (*MailProbe)(nil)
