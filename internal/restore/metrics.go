package restore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	restoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_restore_operations_total",
		Help: "Total number of restore operations",
	}, []string{"mode", "status"})

	restoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drsnap_restore_duration_seconds",
		Help:    "Duration of restore operations",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
	})

	tableRestores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_table_restores_total",
		Help: "Per-table restore outcomes",
	}, []string{"table", "status"})

	rowsRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drsnap_rows_restored_total",
		Help: "Rows written back by non-dry-run restores",
	})

	safetySnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_safety_snapshots_total",
		Help: "Pre-restore safety snapshot outcomes",
	}, []string{"status"})

	regionRetrievals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_region_retrievals_total",
		Help: "Per-region snapshot download outcomes",
	}, []string{"region", "status"})
)
