package rtorpo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpoHours = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drsnap_rpo_hours",
		Help: "Hours since the last completed backup",
	})

	rtoEstimateHours = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drsnap_rto_estimate_hours",
		Help: "Estimated hours to restore the most recent backup",
	})

	targetCompliance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drsnap_rto_rpo_compliant",
		Help: "Whether current RPO and RTO meet their targets (1 or 0)",
	})
)
