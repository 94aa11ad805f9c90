package state

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storageCacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "valreg", Subsystem: "state", Name: "cache_hits_total",
		Help: "Storage reads served from the slot cache.",
	})
	storageCacheMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "valreg", Subsystem: "state", Name: "cache_misses_total",
		Help: "Storage reads that went to disk.",
	})
	storageUpdatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "valreg", Subsystem: "state", Name: "storage_updated_total",
		Help: "Storage words written on commit.",
	})
	storageDeletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "valreg", Subsystem: "state", Name: "storage_deleted_total",
		Help: "Storage words cleared on commit.",
	})
)

// RegisterMetrics registers the state collectors with reg. Registering twice
// with the same registry is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		storageCacheHitCounter, storageCacheMissCounter,
		storageUpdatedCounter, storageDeletedCounter,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}
