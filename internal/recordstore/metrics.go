package recordstore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK        = "ok"
	resultDuplicate = "duplicate_key"
	resultNotFound  = "not_found"
	resultError     = "error"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvass_recordstore_operations_total",
			Help: "Record store operations by store, operation and result",
		},
		[]string{"store", "op", "result"},
	)
	recordsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "canvass_recordstore_records",
			Help: "Number of records held by each store",
		},
		[]string{"store"},
	)
)

// RegisterMetrics registers the store collectors with reg. Registering the
// same collectors twice is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{operationsTotal, recordsGauge} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func observe(store, op, result string) {
	operationsTotal.WithLabelValues(store, op, result).Inc()
}
