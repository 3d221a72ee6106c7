package probes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jonwraymond/probeops/check"
)

// DNSProbe resolves a record and optionally verifies propagation of
// expected values.
//
// Config keys:
// - host (required)
// - record_type (A|AAAA|CNAME|MX|NS|TXT, default A)
// - resolver (optional "ip:port" of a specific DNS server; default OS
//   resolver)
// - expected (optional value or list of values; all present → success,
//   some missing → warning, none matching → error)
// - timeout (default 5s)
type DNSProbe struct{}

// Check performs the lookup.
func (p *DNSProbe) Check(ctx context.Context, config map[string]any) check.Outcome {
	host := stringOpt(config, "host", "")
	if host == "" {
		return check.Failure("dns: missing host")
	}
	recordType := strings.ToUpper(stringOpt(config, "record_type", "A"))
	timeout := durationOpt(config, "timeout", 5*time.Second)

	resolver := net.DefaultResolver
	if server := stringOpt(config, "resolver", ""); server != "" {
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		addr := server
		resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: timeout}
				return d.DialContext(ctx, network, addr)
			},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	records, err := lookup(ctx, resolver, recordType, host)
	latency := time.Since(start)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return check.Failuref("dns: %s has no %s record (NXDOMAIN)", host, recordType).WithRaw(map[string]any{
				"host":        host,
				"record_type": recordType,
			})
		}
		return check.Failuref("dns: resolving %s %s: %v", host, recordType, err).WithRaw(map[string]any{
			"host":        host,
			"record_type": recordType,
		})
	}
	if len(records) == 0 {
		return check.Failuref("dns: %s returned no %s records", host, recordType)
	}

	raw := map[string]any{
		"host":        host,
		"record_type": recordType,
		"records":     records,
		"latency_ms":  latencyMS(latency),
	}

	if expected := stringsOpt(config, "expected"); len(expected) > 0 {
		present := make(map[string]bool, len(records))
		for _, r := range records {
			present[strings.ToLower(r)] = true
		}
		var missing []string
		matched := 0
		for _, want := range expected {
			if present[strings.ToLower(want)] {
				matched++
			} else {
				missing = append(missing, want)
			}
		}
		raw["expected"] = expected
		switch {
		case matched == 0:
			return check.Failuref("dns: none of the expected %s values for %s resolved", recordType, host).WithRaw(raw)
		case len(missing) > 0:
			return check.Warning(fmt.Sprintf("dns: %s partially propagated, missing %s", host, strings.Join(missing, ", "))).WithRaw(raw)
		}
	}

	return check.Success(fmt.Sprintf("dns: %s resolved %d %s record(s)", host, len(records), recordType)).WithRaw(raw)
}

func lookup(ctx context.Context, r *net.Resolver, recordType, host string) ([]string, error) {
	switch recordType {
	case "A", "AAAA":
		network := "ip4"
		if recordType == "AAAA" {
			network = "ip6"
		}
		ips, err := r.LookupIP(ctx, network, host)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(ips))
		for i, ip := range ips {
			out[i] = ip.String()
		}
		return out, nil
	case "CNAME":
		cname, err := r.LookupCNAME(ctx, host)
		if err != nil {
			return nil, err
		}
		return []string{strings.TrimSuffix(cname, ".")}, nil
	case "MX":
		mxs, err := r.LookupMX(ctx, host)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(mxs))
		for i, mx := range mxs {
			out[i] = strings.TrimSuffix(mx.Host, ".")
		}
		return out, nil
	case "NS":
		nss, err := r.LookupNS(ctx, host)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(nss))
		for i, ns := range nss {
			out[i] = strings.TrimSuffix(ns.Host, ".")
		}
		return out, nil
	case "TXT":
		return r.LookupTXT(ctx, host)
	default:
		return nil, fmt.Errorf("unsupported record type %q", recordType)
	}
}

var _ check.Checker = (*DNSProbe)(nil)
