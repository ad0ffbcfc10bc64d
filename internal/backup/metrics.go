package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backupOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_backup_operations_total",
		Help: "Total number of backup operations",
	}, []string{"kind", "status"})

	backupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drsnap_backup_duration_seconds",
		Help:    "Duration of backup operations",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
	})

	backupSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drsnap_backup_size_bytes",
		Help: "Total size of the most recent completed backup",
	})

	tableSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_table_snapshots_total",
		Help: "Per-table snapshot outcomes",
	}, []string{"table", "status"})

	regionUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_region_uploads_total",
		Help: "Per-region replication outcomes",
	}, []string{"region", "status"})

	prunedObjects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drsnap_pruned_objects_total",
		Help: "Objects removed by retention pruning",
	})
)
