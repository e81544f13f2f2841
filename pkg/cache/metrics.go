package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

type cacheMetrics struct {
	setTotal     prometheus.Counter
	getTotal     prometheus.Counter
	hitTotal     prometheus.Counter
	missTotal    prometheus.Counter
	expiredTotal prometheus.Counter
}

// newCacheMetrics creates the per-cache counters and registers them with reg
// if reg is not nil. Callers binding multiple caches to one registry should
// wrap it with prometheus.WrapRegistererWithPrefix to avoid collisions.
func newCacheMetrics(reg prometheus.Registerer) *cacheMetrics {
	m := &cacheMetrics{
		setTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "set_total",
			Help: "Total number of stored entries.",
		}),
		getTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "get_total",
			Help: "Total number of reads.",
		}),
		hitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hit_total",
			Help: "Total number of reads answered from a live entry.",
		}),
		missTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "miss_total",
			Help: "Total number of reads that found no live entry.",
		}),
		expiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expired_total",
			Help: "Total number of entries evicted on read after expiring.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.setTotal, m.getTotal, m.hitTotal, m.missTotal, m.expiredTotal)
	}
	return m
}
