package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parliament-monitor/internal/config"
	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/usecase/generate"
)

type fakeRunner struct {
	stats     generate.RunStats
	gotKinds  []entity.OutputKind
	gotDate   string
	callCount int
}

func (f *fakeRunner) Run(_ context.Context, kinds []entity.OutputKind, date string) generate.RunStats {
	f.callCount++
	f.gotKinds = kinds
	f.gotDate = date
	return f.stats
}

type fakeRecorder struct {
	runs        []string
	outputs     int
	lastSuccess int
	durations   int
}

func (r *fakeRecorder) RecordRun(status string) { r.runs = append(r.runs, status) }
func (r *fakeRecorder) RecordRunDuration(float64) { r.durations++ }
func (r *fakeRecorder) RecordOutputs(count int) { r.outputs += count }
func (r *fakeRecorder) RecordLastSuccess() { r.lastSuccess++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJob_Run(t *testing.T) {
	tests := []struct {
		name            string
		stats           generate.RunStats
		wantStatus      string
		wantLastSuccess int
	}{
		{
			name:            "all outputs published",
			stats:           generate.RunStats{RunID: "r1", Succeeded: 3, FullyLive: 3},
			wantStatus:      "success",
			wantLastSuccess: 1,
		},
		{
			name:       "some outputs failed",
			stats:      generate.RunStats{RunID: "r2", Succeeded: 2, Failed: 1},
			wantStatus: "partial",
		},
		{
			name:       "every output failed",
			stats:      generate.RunStats{RunID: "r3", Failed: 3},
			wantStatus: "failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeRunner{stats: tt.stats}
			rec := &fakeRecorder{}
			kinds := []entity.OutputKind{entity.OutputMotions}

			got := newJob(gen, rec, kinds, discardLogger()).run(context.Background(), "2025-03-10")

			assert.Equal(t, tt.stats, got)
			assert.Equal(t, 1, gen.callCount)
			assert.Equal(t, kinds, gen.gotKinds)
			assert.Equal(t, "2025-03-10", gen.gotDate)
			assert.Equal(t, []string{"started", tt.wantStatus}, rec.runs)
			assert.Equal(t, tt.stats.Succeeded, rec.outputs)
			assert.Equal(t, 1, rec.durations)
			assert.Equal(t, tt.wantLastSuccess, rec.lastSuccess)
		})
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds("")
	require.NoError(t, err)
	assert.Nil(t, kinds)

	kinds, err = parseKinds("week-ahead, MOTIONS")
	require.NoError(t, err)
	assert.Equal(t, []entity.OutputKind{entity.OutputWeekAhead, entity.OutputMotions}, kinds)

	_, err = parseKinds("week-ahead,agenda")
	require.Error(t, err)
	var verr *entity.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBaseDate(t *testing.T) {
	assert.Equal(t, "2025-01-02", baseDate("2025-01-02", time.UTC))

	got := baseDate("", time.UTC)
	_, err := time.Parse(time.DateOnly, got)
	assert.NoError(t, err)
}

func TestRunTimeout(t *testing.T) {
	cfg := config.DefaultMonitorConfig()
	cfg.Transport.RequestTimeout = 10 * time.Second
	cfg.Resilience.MaxRetries = 2
	cfg.Resilience.ReconnectDelay = time.Second
	cfg.Resilience.ReconnectAttempts = 3

	// 2 * (10s*3 + 1s*3) + 1m
	assert.Equal(t, 2*time.Minute+6*time.Second, runTimeout(&cfg))
}

func TestNewPublisher(t *testing.T) {
	cfg := config.DefaultMonitorConfig()
	pub := newPublisher(&cfg, discardLogger())
	require.IsType(t, generate.MultiPublisher{}, pub)
	assert.Len(t, pub.(generate.MultiPublisher), 1)

	cfg.OutputDir = t.TempDir()
	pub = newPublisher(&cfg, discardLogger())
	assert.Len(t, pub.(generate.MultiPublisher), 2)
}
