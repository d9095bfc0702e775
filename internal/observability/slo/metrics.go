// Package slo exposes service level indicators for generation runs.
//
// The monitor's product is timely, authoritative content, so the
// indicators track how many outputs were published and how many of
// those were built entirely from live tool data.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Objectives.
const (
	// PublishedSLO is the target share of requested outputs that get published.
	PublishedSLO = 0.99

	// LiveDataSLO is the target share of published outputs with no fallback data.
	LiveDataSLO = 0.95
)

var (
	// PublishedRatio is the share of requested outputs published in the last run.
	PublishedRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slo_outputs_published_ratio",
		Help: "Share of requested outputs published in the last run (0-1), target: 0.99",
	})

	// LiveDataRatio is the share of published outputs built from live data.
	LiveDataRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slo_live_data_ratio",
		Help: "Share of published outputs with no fallback data in the last run (0-1), target: 0.95",
	})
)

// RunOutcome counts the outputs of one run.
type RunOutcome struct {
	Requested int
	Published int
	FullyLive int
}

// Observe updates both ratios from one run. A run that requested nothing
// leaves the gauges untouched; a run that published nothing reports a
// live ratio of 0.
func Observe(o RunOutcome) {
	if o.Requested <= 0 {
		return
	}
	PublishedRatio.Set(ratio(o.Published, o.Requested))
	LiveDataRatio.Set(ratio(o.FullyLive, o.Published))
}

// Met reports whether the outcome meets both objectives.
func Met(o RunOutcome) bool {
	if o.Requested <= 0 {
		return true
	}
	return ratio(o.Published, o.Requested) >= PublishedSLO &&
		ratio(o.FullyLive, o.Published) >= LiveDataSLO
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
