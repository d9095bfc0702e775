// Package config loads the monitor's runtime configuration.
//
// Values are layered: documented defaults, then an optional YAML file
// named by MONITOR_CONFIG_FILE, then environment variables. Environment
// values that fail to parse or validate fall back to the layer below with
// a warning; the assembled configuration is then validated as a whole and
// every problem is reported at once.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"parliament-monitor/internal/domain/entity"
	pkgconfig "parliament-monitor/internal/pkg/config"
)

// Transport modes.
const (
	ModeProcess = "process"
	ModeGateway = "gateway"
)

// ConfigFileEnv names the environment variable holding the YAML file path.
const ConfigFileEnv = "MONITOR_CONFIG_FILE"

// MonitorConfig is the complete runtime configuration.
type MonitorConfig struct {
	Transport  TransportConfig  `yaml:"transport"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Schedule   ScheduleConfig   `yaml:"schedule"`

	// HealthPort serves /health, /health/ready and /metrics. 0 disables it.
	HealthPort int `yaml:"health_port"`

	// OutputDir receives one JSON file per generated output. Empty only logs.
	OutputDir string `yaml:"output_dir"`
}

// TransportConfig selects and configures the channel to the tool server.
type TransportConfig struct {
	// Mode is "process" (spawn BinaryPath) or "gateway" (POST to GatewayURL).
	Mode       string   `yaml:"mode"`
	BinaryPath string   `yaml:"binary_path"`
	Args       []string `yaml:"args"`
	GatewayURL string   `yaml:"gateway_url"`
	Credential string   `yaml:"credential"`

	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// ResilienceConfig tunes retries, reconnects and the shared breaker.
type ResilienceConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxRateLimitWait  time.Duration `yaml:"max_rate_limit_wait"`
	BreakerThreshold  int           `yaml:"breaker_threshold"`
	BreakerCoolDown   time.Duration `yaml:"breaker_cool_down"`
}

// FetchConfig selects what the outputs ask for.
type FetchConfig struct {
	Committees []string `yaml:"committees"`
	Keyword    string   `yaml:"keyword"`
	Limit      int      `yaml:"limit"`
}

// ScheduleConfig controls when runs happen. An empty Cron runs once and exits.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// DefaultMonitorConfig returns the documented defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Transport: TransportConfig{
			Mode:           ModeProcess,
			BinaryPath:     "european-parliament-mcp-server",
			RequestTimeout: 30 * time.Second,
		},
		Resilience: ResilienceConfig{
			MaxRetries:        2,
			ReconnectAttempts: 3,
			ReconnectDelay:    2 * time.Second,
			MaxRateLimitWait:  30 * time.Second,
			BreakerThreshold:  3,
			BreakerCoolDown:   60 * time.Second,
		},
		Fetch: FetchConfig{
			Committees: []string{"ENVI", "ECON", "AFET", "LIBE", "AGRI"},
			Keyword:    "parliament",
			Limit:      20,
		},
		Schedule: ScheduleConfig{
			Timezone: "Europe/Brussels",
		},
		HealthPort: 9091,
	}
}

// Validate checks the whole configuration and joins every problem found.
func (c *MonitorConfig) Validate() error {
	var errs []error
	add := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	add("transport.mode", pkgconfig.ValidateOneOf(c.Transport.Mode, ModeProcess, ModeGateway))
	switch c.Transport.Mode {
	case ModeProcess:
		if strings.TrimSpace(c.Transport.BinaryPath) == "" {
			add("transport.binary_path", errors.New("required in process mode"))
		}
	case ModeGateway:
		add("transport.gateway_url", entity.ValidateGatewayURL(c.Transport.GatewayURL))
	}
	add("transport.request_timeout", pkgconfig.ValidatePositiveDuration(c.Transport.RequestTimeout))
	add("transport.requests_per_second", pkgconfig.ValidateFloatRange(c.Transport.RequestsPerSecond, 0, 1000))
	add("transport.burst", pkgconfig.ValidateIntRange(c.Transport.Burst, 0, 1000))

	add("resilience.max_retries", pkgconfig.ValidateIntRange(c.Resilience.MaxRetries, 0, 10))
	add("resilience.reconnect_attempts", pkgconfig.ValidateIntRange(c.Resilience.ReconnectAttempts, 1, 10))
	add("resilience.reconnect_delay", pkgconfig.ValidatePositiveDuration(c.Resilience.ReconnectDelay))
	add("resilience.max_rate_limit_wait", pkgconfig.ValidatePositiveDuration(c.Resilience.MaxRateLimitWait))
	add("resilience.breaker_threshold", pkgconfig.ValidateIntRange(c.Resilience.BreakerThreshold, 1, 100))
	add("resilience.breaker_cool_down", pkgconfig.ValidatePositiveDuration(c.Resilience.BreakerCoolDown))

	if len(c.Fetch.Committees) == 0 {
		add("fetch.committees", errors.New("at least one committee is required"))
	}
	for i, id := range c.Fetch.Committees {
		if strings.TrimSpace(id) == "" {
			add(fmt.Sprintf("fetch.committees[%d]", i), errors.New("blank committee id"))
		}
	}
	if strings.TrimSpace(c.Fetch.Keyword) == "" {
		add("fetch.keyword", errors.New("required"))
	}
	add("fetch.limit", pkgconfig.ValidateIntRange(c.Fetch.Limit, 1, 100))

	if c.Schedule.Cron != "" {
		add("schedule.cron", pkgconfig.ValidateCronSchedule(c.Schedule.Cron))
	}
	add("schedule.timezone", pkgconfig.ValidateTimezone(c.Schedule.Timezone))

	if c.HealthPort != 0 {
		add("health_port", pkgconfig.ValidateIntRange(c.HealthPort, 1024, 65535))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the schedule timezone, or UTC when it cannot be loaded.
func (c *MonitorConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogValue implements slog.LogValuer. The credential is never logged.
func (c MonitorConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transport_mode", c.Transport.Mode),
		slog.String("binary_path", c.Transport.BinaryPath),
		slog.String("gateway_url", c.Transport.GatewayURL),
		slog.Bool("credential_set", c.Transport.Credential != ""),
		slog.Duration("request_timeout", c.Transport.RequestTimeout),
		slog.Int("max_retries", c.Resilience.MaxRetries),
		slog.Int("breaker_threshold", c.Resilience.BreakerThreshold),
		slog.Duration("breaker_cool_down", c.Resilience.BreakerCoolDown),
		slog.Any("committees", c.Fetch.Committees),
		slog.String("cron", c.Schedule.Cron),
		slog.String("timezone", c.Schedule.Timezone),
		slog.Int("health_port", c.HealthPort),
	)
}

// DecodeYAML overlays the YAML document in r onto cfg. Unknown keys are
// rejected so typos surface instead of silently keeping defaults.
func DecodeYAML(r io.Reader, cfg *MonitorConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// LoadFile overlays the YAML file at path onto cfg.
func LoadFile(path string, cfg *MonitorConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return DecodeYAML(bytes.NewReader(data), cfg)
}
