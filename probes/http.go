package probes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/probeops/check"
)

// maxBodyBytes bounds how much of a response body is read for substring
// matching.
const maxBodyBytes = 1 << 20

// HTTPProbe checks that a URL is reachable and responds as expected.
//
// Config keys:
// - url (required)
// - method (default GET)
// - expected_status (default 200)
// - body_contains (optional substring match)
// - timeout (default 10s)
type HTTPProbe struct{}

// Check performs the HTTP request.
func (p *HTTPProbe) Check(ctx context.Context, config map[string]any) check.Outcome {
	url := stringOpt(config, "url", "")
	if url == "" {
		return check.Failure("http: missing url")
	}
	method := strings.ToUpper(stringOpt(config, "method", http.MethodGet))
	expected := intOpt(config, "expected_status", http.StatusOK)
	timeout := durationOpt(config, "timeout", 10*time.Second)

	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return check.Failuref("http: building request: %v", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return check.Failuref("http: %v", err).WithRaw(map[string]any{
			"url": url,
		})
	}
	defer resp.Body.Close()

	raw := map[string]any{
		"url":         url,
		"status_code": resp.StatusCode,
		"latency_ms":  latencyMS(latency),
	}

	if resp.StatusCode != expected {
		msg := fmt.Sprintf("http: %s responded %s, expected %d", url, resp.Status, expected)
		if resp.StatusCode >= 400 {
			return check.Failure(msg).WithRaw(raw)
		}
		return check.Warning(msg).WithRaw(raw)
	}

	if sub := stringOpt(config, "body_contains", ""); sub != "" {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return check.Failuref("http: reading body: %v", readErr).WithRaw(raw)
		}
		if !strings.Contains(string(body), sub) {
			return check.Warning(fmt.Sprintf("http: %s responded %s but body does not contain %q", url, resp.Status, sub)).WithRaw(raw)
		}
	}

	return check.Success(fmt.Sprintf("http: %s responded %s", url, resp.Status)).WithRaw(raw)
}

var _ check.Checker = (*HTTPProbe)(nil)
