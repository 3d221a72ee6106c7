package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/observe"
)

// Duration parses YAML scalars like "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// File is the on-disk configuration. Values of the form ${NAME} are
// expanded from the environment before parsing, so secrets like API key
// hashes and the JWT secret never need to live in the file itself.
type File struct {
	ServiceName string `yaml:"service_name"`

	MaxWorkers      int      `yaml:"max_workers"`
	BatchSize       int      `yaml:"batch_size"`
	PerCheckTimeout Duration `yaml:"per_check_timeout"`
	BatchTimeout    Duration `yaml:"batch_timeout"`

	Observability ObservabilityFile `yaml:"observability"`

	Checks []CheckDef `yaml:"checks"`

	Server   ServerFile `yaml:"server"`
	Database string     `yaml:"database"`
	Kafka    KafkaFile  `yaml:"kafka"`
}

// CheckDef is one configured check.
type CheckDef struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// ObservabilityFile configures tracing, metrics, and logging.
type ObservabilityFile struct {
	Tracing struct {
		Enabled   bool    `yaml:"enabled"`
		Exporter  string  `yaml:"exporter"`
		SamplePct float64 `yaml:"sample_pct"`
	} `yaml:"tracing"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"`
	} `yaml:"metrics"`
	Logging struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
	} `yaml:"logging"`
}

// ServerFile configures the HTTP server.
type ServerFile struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	APIKeyHashes   []string `yaml:"api_key_hashes"`
	JWTSecret      string   `yaml:"jwt_secret"`
	Metrics        bool     `yaml:"metrics"`
	MaxBatchSize   int      `yaml:"max_batch_size"`
}

// KafkaFile configures the optional batch publisher.
type KafkaFile struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LoadFile reads, env-expands, and parses a configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if f.ServiceName == "" {
		f.ServiceName = "probeops"
	}
	return &f, nil
}

// ObserveConfig translates the file into an observe.Config.
func (f *File) ObserveConfig() observe.Config {
	cfg := observe.Config{
		ServiceName: f.ServiceName,
		Version:     version,
	}
	cfg.Tracing.Enabled = f.Observability.Tracing.Enabled
	cfg.Tracing.Exporter = f.Observability.Tracing.Exporter
	cfg.Tracing.SamplePct = f.Observability.Tracing.SamplePct
	cfg.Metrics.Enabled = f.Observability.Metrics.Enabled
	cfg.Metrics.Exporter = f.Observability.Metrics.Exporter
	cfg.Logging.Enabled = f.Observability.Logging.Enabled
	cfg.Logging.Level = f.Observability.Logging.Level
	return cfg
}

// RunnerConfig translates the file into a batch.RunnerConfig.
func (f *File) RunnerConfig(obs observe.Observer) batch.RunnerConfig {
	return batch.RunnerConfig{
		MaxWorkers:      f.MaxWorkers,
		ChunkSize:       f.BatchSize,
		PerCheckTimeout: time.Duration(f.PerCheckTimeout),
		BatchTimeout:    time.Duration(f.BatchTimeout),
		Observer:        obs,
	}
}
