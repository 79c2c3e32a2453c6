package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort       = 8080
	DefaultPingTimeout    = 5 * time.Second
	DefaultMaxInFlight    = 8
	DefaultUnitTimeout    = 5 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	DefaultStreamInterval = 5 * time.Second
)

// Config is the top-level service configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Stats   StatsConfig   `yaml:"stats"`
	Stream  StreamConfig  `yaml:"stream"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the stats API listens on.
	HTTPPort int `yaml:"http_port"`
}

// RuntimeConfig holds the container-runtime endpoint settings.
type RuntimeConfig struct {
	// Endpoint is the Docker daemon address (e.g. unix:///var/run/docker.sock).
	// Empty means the standard environment configuration (DOCKER_HOST etc.).
	Endpoint string `yaml:"endpoint"`

	// PingTimeout bounds the daemon reachability check performed before
	// any fetch work starts.
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

// StatsConfig tunes the per-request fan-out.
type StatsConfig struct {
	// MaxInFlight is the upper limit on concurrently in-flight runtime
	// queries per request. Excess units queue until a slot frees.
	MaxInFlight int `yaml:"max_in_flight"`

	// UnitTimeout bounds each individual container fetch.
	UnitTimeout time.Duration `yaml:"unit_timeout"`

	// RequestTimeout bounds total request latency. On expiry, units
	// still pending become timeout outcomes and the partial response is
	// returned.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StreamConfig configures the WebSocket live-stats stream.
type StreamConfig struct {
	// Interval is how often the hub broadcasts a fresh snapshot.
	Interval time.Duration `yaml:"interval"`

	// Targets is the watch list broadcast over /ws/stream. Hot-reloadable.
	Targets []Target `yaml:"targets"`
}

// Target is one watched (pipeline, service) pair.
type Target struct {
	Pipeline string `yaml:"pipeline"`
	Service  string `yaml:"service"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Runtime: RuntimeConfig{
			PingTimeout: DefaultPingTimeout,
		},
		Stats: StatsConfig{
			MaxInFlight:    DefaultMaxInFlight,
			UnitTimeout:    DefaultUnitTimeout,
			RequestTimeout: DefaultRequestTimeout,
		},
		Stream: StreamConfig{
			Interval: DefaultStreamInterval,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be in 1..65535")
	}
	if cfg.Runtime.PingTimeout <= 0 {
		return fmt.Errorf("runtime.ping_timeout must be positive")
	}
	if cfg.Stats.MaxInFlight <= 0 {
		return fmt.Errorf("stats.max_in_flight must be positive")
	}
	if cfg.Stats.UnitTimeout <= 0 {
		return fmt.Errorf("stats.unit_timeout must be positive")
	}
	if cfg.Stats.RequestTimeout < cfg.Stats.UnitTimeout {
		return fmt.Errorf("stats.request_timeout must be at least stats.unit_timeout")
	}
	if cfg.Stream.Interval <= 0 {
		return fmt.Errorf("stream.interval must be positive")
	}
	for i, tgt := range cfg.Stream.Targets {
		if tgt.Pipeline == "" {
			return fmt.Errorf("stream.targets[%d]: pipeline is required", i)
		}
		if tgt.Service == "" {
			return fmt.Errorf("stream.targets[%d] %q: service is required", i, tgt.Pipeline)
		}
	}
	return nil
}
