package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var healthStatus = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "drsnap_health_status",
	Help: "Overall health (0 healthy, 1 warning, 2 critical, 3 error)",
})
