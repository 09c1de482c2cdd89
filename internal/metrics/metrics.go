// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_jobs_submitted_total",
			Help: "Total number of inference jobs submitted",
		},
		[]string{"model_id", "outcome"}, // outcome: enqueued, rejected
	)

	JobsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_jobs_resolved_total",
			Help: "Total number of inference jobs resolved by workers",
		},
		[]string{"state"}, // completed, failed, aborted
	)

	SpectrogramsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_spectrograms_ingested_total",
			Help: "Total number of spectrograms persisted",
		},
		[]string{"source"}, // single, zip
	)

	TokensDebitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectra_tokens_debited_total",
			Help: "Total tokens debited from user balances",
		},
		[]string{"operation"},
	)

	RunningJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectra_running_jobs",
			Help: "Current number of jobs being executed by workers",
		},
	)

	JobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spectra_job_duration_seconds",
			Help:    "Inference job execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		},
	)
)
