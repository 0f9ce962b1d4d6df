package canvass

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the live session count as a gauge.
func (m *Manager) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "canvass_active_sessions",
			Help: "Canvass sessions currently held in memory",
		},
		func() float64 { return float64(m.Len()) },
	)
}
