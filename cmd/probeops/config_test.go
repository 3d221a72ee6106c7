package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probeops.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
service_name: edge-probes
max_workers: 8
batch_size: 50
per_check_timeout: 5s
batch_timeout: 2m
observability:
  logging:
    enabled: true
    level: debug
checks:
  - id: web
    type: http
    config:
      url: https://example.com
      expected_status: 200
  - type: ping
    config:
      host: example.com
server:
  addr: ":9090"
  metrics: true
database: /var/lib/probeops.db
kafka:
  brokers: ["broker-1:9092"]
  topic: batches
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if f.ServiceName != "edge-probes" {
		t.Errorf("ServiceName = %q, want edge-probes", f.ServiceName)
	}
	if f.MaxWorkers != 8 || f.BatchSize != 50 {
		t.Errorf("MaxWorkers, BatchSize = %d, %d; want 8, 50", f.MaxWorkers, f.BatchSize)
	}
	if time.Duration(f.PerCheckTimeout) != 5*time.Second {
		t.Errorf("PerCheckTimeout = %v, want 5s", time.Duration(f.PerCheckTimeout))
	}
	if time.Duration(f.BatchTimeout) != 2*time.Minute {
		t.Errorf("BatchTimeout = %v, want 2m", time.Duration(f.BatchTimeout))
	}
	if len(f.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(f.Checks))
	}
	if f.Checks[0].ID != "web" || f.Checks[0].Type != "http" {
		t.Errorf("Checks[0] = %+v, want id web, type http", f.Checks[0])
	}
	if f.Checks[0].Config["url"] != "https://example.com" {
		t.Errorf("Checks[0].Config[url] = %v", f.Checks[0].Config["url"])
	}
	if f.Server.Addr != ":9090" || !f.Server.Metrics {
		t.Errorf("Server = %+v, want addr :9090 with metrics", f.Server)
	}
	if f.Database != "/var/lib/probeops.db" {
		t.Errorf("Database = %q", f.Database)
	}
	if len(f.Kafka.Brokers) != 1 || f.Kafka.Topic != "batches" {
		t.Errorf("Kafka = %+v", f.Kafka)
	}

	rc := f.RunnerConfig(nil)
	if rc.MaxWorkers != 8 || rc.ChunkSize != 50 || rc.PerCheckTimeout != 5*time.Second {
		t.Errorf("RunnerConfig() = %+v", rc)
	}

	oc := f.ObserveConfig()
	if oc.ServiceName != "edge-probes" || !oc.Logging.Enabled || oc.Logging.Level != "debug" {
		t.Errorf("ObserveConfig() = %+v", oc)
	}
}

func TestLoadFileExpandsEnv(t *testing.T) {
	t.Setenv("PROBEOPS_JWT_SECRET", "super-secret")
	t.Setenv("PROBEOPS_TARGET", "internal.example.com")

	path := writeConfig(t, `
server:
  jwt_secret: ${PROBEOPS_JWT_SECRET}
checks:
  - type: ping
    config:
      host: ${PROBEOPS_TARGET}
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if f.Server.JWTSecret != "super-secret" {
		t.Errorf("JWTSecret = %q, want expanded secret", f.Server.JWTSecret)
	}
	if f.Checks[0].Config["host"] != "internal.example.com" {
		t.Errorf("Config[host] = %v, want expanded host", f.Checks[0].Config["host"])
	}
}

func TestLoadFileDefaultsServiceName(t *testing.T) {
	path := writeConfig(t, `max_workers: 4`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if f.ServiceName != "probeops" {
		t.Errorf("ServiceName = %q, want probeops", f.ServiceName)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) returned nil error")
	}

	badYAML := writeConfig(t, "checks: [")
	if _, err := LoadFile(badYAML); err == nil {
		t.Error("LoadFile(bad yaml) returned nil error")
	}

	badDuration := writeConfig(t, "per_check_timeout: nonsense")
	if _, err := LoadFile(badDuration); err == nil {
		t.Error("LoadFile(bad duration) returned nil error")
	}
}
