package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── Stubs ───────── */

type fakeRecorder struct {
	mu        sync.Mutex
	fallbacks []string
	active    bool
	loaded    bool
}

func (r *fakeRecorder) RecordFallback(field, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, field+"/"+source)
}

func (r *fakeRecorder) SetFallbackActive(active bool) { r.active = active }
func (r *fakeRecorder) RecordLoadTimestamp()          { r.loaded = true }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

/* ───────── Defaults and validation ───────── */

func TestDefaultMonitorConfig_IsValid(t *testing.T) {
	cfg := DefaultMonitorConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeProcess, cfg.Transport.Mode)
	assert.Equal(t, 30*time.Second, cfg.Transport.RequestTimeout)
	assert.Equal(t, 2, cfg.Resilience.MaxRetries)
	assert.Equal(t, 3, cfg.Resilience.BreakerThreshold)
	assert.Equal(t, 60*time.Second, cfg.Resilience.BreakerCoolDown)
	assert.Equal(t, []string{"ENVI", "ECON", "AFET", "LIBE", "AGRI"}, cfg.Fetch.Committees)
	assert.Empty(t, cfg.Schedule.Cron, "default is a single run")
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := DefaultMonitorConfig()
	cfg.Transport.Mode = ModeGateway
	cfg.Transport.GatewayURL = "ftp://gateway"
	cfg.Resilience.BreakerThreshold = 0
	cfg.Fetch.Committees = []string{"ENVI", " "}
	cfg.Schedule.Cron = "whenever"
	cfg.HealthPort = 80

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, field := range []string{
		"transport.gateway_url",
		"resilience.breaker_threshold",
		"fetch.committees[1]",
		"schedule.cron",
		"health_port",
	} {
		assert.Contains(t, msg, field)
	}
}

func TestValidate_ModeSpecificFields(t *testing.T) {
	cfg := DefaultMonitorConfig()
	cfg.Transport.BinaryPath = ""
	assert.ErrorContains(t, cfg.Validate(), "transport.binary_path")

	cfg = DefaultMonitorConfig()
	cfg.Transport.Mode = ModeGateway
	cfg.Transport.GatewayURL = "http://10.0.0.5:8080/mcp"
	cfg.Transport.BinaryPath = ""
	assert.NoError(t, cfg.Validate(), "private gateway hosts are allowed")

	cfg.Transport.Mode = "grpc"
	assert.ErrorContains(t, cfg.Validate(), "transport.mode")
}

func TestValidate_HealthPortZeroDisables(t *testing.T) {
	cfg := DefaultMonitorConfig()
	cfg.HealthPort = 0
	assert.NoError(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg := DefaultMonitorConfig()
	assert.Equal(t, "Europe/Brussels", cfg.Location().String())

	cfg.Schedule.Timezone = "Nowhere/Special"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLogValue_HidesCredential(t *testing.T) {
	cfg := DefaultMonitorConfig()
	cfg.Transport.Credential = "s3cret-token"

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("loaded", slog.Any("config", cfg))

	assert.NotContains(t, buf.String(), "s3cret-token")
	assert.Contains(t, buf.String(), `"credential_set":true`)
}

/* ───────── YAML file ───────── */

func TestDecodeYAML_OverlaysDefaults(t *testing.T) {
	cfg := DefaultMonitorConfig()
	doc := `
transport:
  mode: gateway
  gateway_url: https://gateway.example.org/mcp
  request_timeout: 45s
resilience:
  breaker_cool_down: 2m
fetch:
  committees: [ENVI, ITRE]
schedule:
  cron: "0 6 * * 1"
`
	require.NoError(t, DecodeYAML(strings.NewReader(doc), &cfg))

	assert.Equal(t, ModeGateway, cfg.Transport.Mode)
	assert.Equal(t, 45*time.Second, cfg.Transport.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Resilience.BreakerCoolDown)
	assert.Equal(t, []string{"ENVI", "ITRE"}, cfg.Fetch.Committees)
	assert.Equal(t, "0 6 * * 1", cfg.Schedule.Cron)
	assert.Equal(t, 2, cfg.Resilience.MaxRetries, "unset keys keep their defaults")
	assert.NoError(t, cfg.Validate())
}

func TestDecodeYAML_RejectsUnknownKeys(t *testing.T) {
	cfg := DefaultMonitorConfig()
	err := DecodeYAML(strings.NewReader("transport:\n  moed: gateway\n"), &cfg)
	assert.ErrorContains(t, err, "moed")
}

func TestDecodeYAML_EmptyDocument(t *testing.T) {
	cfg := DefaultMonitorConfig()
	require.NoError(t, DecodeYAML(strings.NewReader(""), &cfg))
	assert.Equal(t, DefaultMonitorConfig(), cfg)
}

/* ───────── Load ───────── */

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  keyword: climate\n  limit: 10\n"), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("MONITOR_LIMIT", "50")
	t.Setenv("MCP_TRANSPORT", "GATEWAY")
	t.Setenv("MCP_GATEWAY_URL", "https://gateway.example.org/mcp")
	t.Setenv("MCP_GATEWAY_TOKEN", "token")
	t.Setenv("MONITOR_COMMITTEES", "ENVI, ITRE")

	rec := &fakeRecorder{}
	cfg, err := Load(quietLogger(), rec)
	require.NoError(t, err)

	assert.Equal(t, "climate", cfg.Fetch.Keyword)
	assert.Equal(t, 50, cfg.Fetch.Limit)
	assert.Equal(t, ModeGateway, cfg.Transport.Mode)
	assert.Equal(t, "token", cfg.Transport.Credential)
	assert.Equal(t, []string{"ENVI", "ITRE"}, cfg.Fetch.Committees)
	assert.Empty(t, rec.fallbacks)
	assert.False(t, rec.active)
	assert.True(t, rec.loaded)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "every morning")
	t.Setenv("MCP_REQUEST_TIMEOUT", "-1s")
	t.Setenv("BREAKER_THRESHOLD", "zero")

	rec := &fakeRecorder{}
	cfg, err := Load(quietLogger(), rec)
	require.NoError(t, err)

	def := DefaultMonitorConfig()
	assert.Equal(t, def.Schedule.Cron, cfg.Schedule.Cron)
	assert.Equal(t, def.Transport.RequestTimeout, cfg.Transport.RequestTimeout)
	assert.Equal(t, def.Resilience.BreakerThreshold, cfg.Resilience.BreakerThreshold)
	assert.ElementsMatch(t, []string{
		"schedule.cron/env",
		"transport.request_timeout/env",
		"resilience.breaker_threshold/env",
	}, rec.fallbacks)
	assert.True(t, rec.active)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load(quietLogger(), nil)
	assert.ErrorContains(t, err, "read config file")
}

func TestLoad_InvalidAssembledConfig(t *testing.T) {
	t.Setenv("MCP_TRANSPORT", "gateway")

	_, err := Load(quietLogger(), nil)
	assert.ErrorContains(t, err, "transport.gateway_url")
}
