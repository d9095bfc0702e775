package slo

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	metric := &io_prometheus_client.Metric{}
	if err := g.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.GetGauge().GetValue()
}

func TestObserve(t *testing.T) {
	tests := []struct {
		name          string
		outcome       RunOutcome
		wantPublished float64
		wantLive      float64
	}{
		{"all live", RunOutcome{Requested: 3, Published: 3, FullyLive: 3}, 1, 1},
		{"one failed", RunOutcome{Requested: 4, Published: 3, FullyLive: 3}, 0.75, 1},
		{"partial data", RunOutcome{Requested: 2, Published: 2, FullyLive: 1}, 1, 0.5},
		{"nothing published", RunOutcome{Requested: 3}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Observe(tt.outcome)
			if got := gaugeValue(t, PublishedRatio); got != tt.wantPublished {
				t.Errorf("PublishedRatio = %v, want %v", got, tt.wantPublished)
			}
			if got := gaugeValue(t, LiveDataRatio); got != tt.wantLive {
				t.Errorf("LiveDataRatio = %v, want %v", got, tt.wantLive)
			}
		})
	}
}

func TestObserve_EmptyRunLeavesGauges(t *testing.T) {
	Observe(RunOutcome{Requested: 2, Published: 1, FullyLive: 1})
	Observe(RunOutcome{})

	if got := gaugeValue(t, PublishedRatio); got != 0.5 {
		t.Errorf("PublishedRatio = %v, want 0.5", got)
	}
}

func TestMet(t *testing.T) {
	tests := []struct {
		name    string
		outcome RunOutcome
		want    bool
	}{
		{"empty run", RunOutcome{}, true},
		{"perfect", RunOutcome{Requested: 3, Published: 3, FullyLive: 3}, true},
		{"missing output", RunOutcome{Requested: 3, Published: 2, FullyLive: 2}, false},
		{"fallback data", RunOutcome{Requested: 3, Published: 3, FullyLive: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Met(tt.outcome); got != tt.want {
				t.Errorf("Met(%+v) = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}
}
