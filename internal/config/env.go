package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	pkgconfig "parliament-monitor/internal/pkg/config"
)

// FallbackRecorder receives one call per rejected environment value.
// *pkgconfig.ConfigMetrics implements it.
type FallbackRecorder interface {
	RecordFallback(field, source string)
	SetFallbackActive(active bool)
	RecordLoadTimestamp()
}

// Load assembles the configuration: defaults, the optional YAML file,
// then environment overrides. A missing or malformed file and an invalid
// final configuration are errors; a bad environment value is not.
func Load(logger *slog.Logger, metrics FallbackRecorder) (*MonitorConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultMonitorConfig()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
		logger.Info("configuration file loaded", slog.String("path", path))
	}

	fallbacks := applyEnv(&cfg, logger, metrics)
	if metrics != nil {
		metrics.SetFallbackActive(fallbacks > 0)
		metrics.RecordLoadTimestamp()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envLoader applies environment overrides and reports rejected values.
type envLoader struct {
	logger    *slog.Logger
	metrics   FallbackRecorder
	fallbacks int
}

func (l *envLoader) note(field, warning string, applied bool) {
	if !applied {
		return
	}
	l.fallbacks++
	if l.metrics != nil {
		l.metrics.RecordFallback(field, "env")
	}
	l.logger.Warn("Configuration fallback applied",
		slog.String("field", field),
		slog.String("warning", warning))
}

func (l *envLoader) str(field, key string, dst *string, validator func(string) error) {
	r := pkgconfig.LoadEnvWithFallback(key, *dst, validator)
	*dst = r.Value
	l.note(field, r.Warning, r.FallbackApplied)
}

func (l *envLoader) integer(field, key string, dst *int, validator func(int) error) {
	r := pkgconfig.LoadEnvInt(key, *dst, validator)
	*dst = r.Value
	l.note(field, r.Warning, r.FallbackApplied)
}

func (l *envLoader) float(field, key string, dst *float64, validator func(float64) error) {
	r := pkgconfig.LoadEnvFloat(key, *dst, validator)
	*dst = r.Value
	l.note(field, r.Warning, r.FallbackApplied)
}

func (l *envLoader) duration(field, key string, dst *time.Duration, validator func(time.Duration) error) {
	r := pkgconfig.LoadEnvDuration(key, *dst, validator)
	*dst = r.Value
	l.note(field, r.Warning, r.FallbackApplied)
}

func (l *envLoader) list(field, key string, dst *[]string) {
	r := pkgconfig.LoadEnvList(key, *dst, nil)
	*dst = r.Value
	l.note(field, r.Warning, r.FallbackApplied)
}

func intRange(min, max int) func(int) error {
	return func(v int) error { return pkgconfig.ValidateIntRange(v, min, max) }
}

func applyEnv(cfg *MonitorConfig, logger *slog.Logger, metrics FallbackRecorder) int {
	l := &envLoader{logger: logger, metrics: metrics}

	l.str("transport.mode", "MCP_TRANSPORT", &cfg.Transport.Mode, func(v string) error {
		return pkgconfig.ValidateOneOf(strings.ToLower(v), ModeProcess, ModeGateway)
	})
	cfg.Transport.Mode = strings.ToLower(cfg.Transport.Mode)
	l.str("transport.binary_path", "MCP_SERVER_BINARY", &cfg.Transport.BinaryPath, nil)
	l.list("transport.args", "MCP_SERVER_ARGS", &cfg.Transport.Args)
	l.str("transport.gateway_url", "MCP_GATEWAY_URL", &cfg.Transport.GatewayURL, nil)
	l.str("transport.credential", "MCP_GATEWAY_TOKEN", &cfg.Transport.Credential, nil)
	l.duration("transport.request_timeout", "MCP_REQUEST_TIMEOUT", &cfg.Transport.RequestTimeout, pkgconfig.ValidatePositiveDuration)
	l.float("transport.requests_per_second", "MCP_GATEWAY_RPS", &cfg.Transport.RequestsPerSecond, func(v float64) error {
		return pkgconfig.ValidateFloatRange(v, 0, 1000)
	})
	l.integer("transport.burst", "MCP_GATEWAY_BURST", &cfg.Transport.Burst, intRange(0, 1000))

	l.integer("resilience.max_retries", "MCP_MAX_RETRIES", &cfg.Resilience.MaxRetries, intRange(0, 10))
	l.integer("resilience.reconnect_attempts", "MCP_RECONNECT_ATTEMPTS", &cfg.Resilience.ReconnectAttempts, intRange(1, 10))
	l.duration("resilience.reconnect_delay", "MCP_RECONNECT_DELAY", &cfg.Resilience.ReconnectDelay, pkgconfig.ValidatePositiveDuration)
	l.duration("resilience.max_rate_limit_wait", "MCP_MAX_RATE_LIMIT_WAIT", &cfg.Resilience.MaxRateLimitWait, pkgconfig.ValidatePositiveDuration)
	l.integer("resilience.breaker_threshold", "BREAKER_THRESHOLD", &cfg.Resilience.BreakerThreshold, intRange(1, 100))
	l.duration("resilience.breaker_cool_down", "BREAKER_COOLDOWN", &cfg.Resilience.BreakerCoolDown, pkgconfig.ValidatePositiveDuration)

	l.list("fetch.committees", "MONITOR_COMMITTEES", &cfg.Fetch.Committees)
	l.str("fetch.keyword", "MONITOR_KEYWORD", &cfg.Fetch.Keyword, nil)
	l.integer("fetch.limit", "MONITOR_LIMIT", &cfg.Fetch.Limit, intRange(1, 100))

	l.str("schedule.cron", "CRON_SCHEDULE", &cfg.Schedule.Cron, pkgconfig.ValidateCronSchedule)
	l.str("schedule.timezone", "MONITOR_TIMEZONE", &cfg.Schedule.Timezone, pkgconfig.ValidateTimezone)

	l.integer("health_port", "HEALTH_PORT", &cfg.HealthPort, func(v int) error {
		if v == 0 {
			return nil
		}
		return pkgconfig.ValidateIntRange(v, 1024, 65535)
	})
	l.str("output_dir", "OUTPUT_DIR", &cfg.OutputDir, nil)

	return l.fallbacks
}

