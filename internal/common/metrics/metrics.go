// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_validated_total",
			Help: "Total number of records that completed validation",
		},
		[]string{"verdict"},
	)

	ValidationReasons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_validation_reasons_total",
			Help: "Total number of validation failure reasons by check",
		},
		[]string{"check", "code"},
	)

	AssetProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_asset_probes_total",
			Help: "Total number of asset accessibility probes issued",
		},
		[]string{"scheme", "result"},
	)

	AssetProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ingest_asset_probe_duration_seconds",
			Help: "Duration of asset accessibility probes in seconds",
		},
		[]string{"scheme"},
	)

	CollectionCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_collection_cache_total",
			Help: "Collection existence cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	BatchesFlushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_flushed_total",
			Help: "Total number of batches sealed, by flush trigger",
		},
		[]string{"trigger"},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size_records",
			Help:    "Number of records per sealed batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	CommitAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_commit_attempts_total",
			Help: "Total number of bulk write attempts against the catalog store",
		},
		[]string{"result"},
	)

	CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "ingest_commit_duration_seconds",
			Help: "Duration of bulk catalog writes in seconds",
		},
	)

	RecordOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_record_outcomes_total",
			Help: "Per-record commit outcomes",
		},
		[]string{"status"},
	)

	DeadLetteredBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_dead_lettered_batches_total",
			Help: "Total number of batches written to the dead-letter index",
		},
	)

	SubmissionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_submissions_in_flight",
			Help: "Number of submissions accepted but not yet resolved",
		},
	)
)
