package probes

import "github.com/jonwraymond/probeops/check"

// Check type tags for the built-in probes.
const (
	TypeHTTP = "http"
	TypeTLS  = "tls"
	TypeDNS  = "dns"
	TypeMail = "mail"
	TypePing = "ping"
)

// DefaultRegistry returns a registry with every built-in probe registered.
// Build it once at process start and inject it into the batch runner.
func DefaultRegistry() *check.Registry {
	r := check.NewRegistry()
	r.MustRegister(TypeHTTP, &HTTPProbe{})
	r.MustRegister(TypeTLS, &TLSProbe{})
	r.MustRegister(TypeDNS, &DNSProbe{})
	r.MustRegister(TypeMail, &MailProbe{})
	r.MustRegister(TypePing, &PingProbe{})
	return r
}
