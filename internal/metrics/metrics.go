// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed analyses by resulting tier and
	// scoring mode.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "privacyscanner",
		Name:      "analyses_total",
		Help:      "Completed analyses by risk tier and model mode.",
	}, []string{"tier", "mode"})

	// DetectorFailuresTotal counts recovered detector panics and errors.
	DetectorFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "privacyscanner",
		Name:      "detector_failures_total",
		Help:      "Detector failures recovered as empty output.",
	}, []string{"detector"})

	// AdvisoryOutcomesTotal counts advisory results by source, including
	// skips.
	AdvisoryOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "privacyscanner",
		Name:      "advisory_outcomes_total",
		Help:      "Advisory step outcomes by source.",
	}, []string{"source"})

	// AnalysisDuration observes end-to-end pipeline latency.
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "privacyscanner",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end analysis latency.",
		Buckets:   prometheus.DefBuckets,
	})
)

// AdvisorySourceSkipped labels analyses where the policy chose not to run
// the advisory step.
const AdvisorySourceSkipped = "skipped"
