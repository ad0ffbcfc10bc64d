package sched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scheduledRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drsnap_scheduled_runs_total",
		Help: "Scheduled backup runs by outcome",
	}, []string{"status"})

	nextRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drsnap_next_scheduled_run_timestamp_seconds",
		Help: "Unix time of the next scheduled backup run",
	})
)
