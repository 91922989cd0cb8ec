package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metricsSet struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	errors *prometheus.CounterVec
}

var defaultMetrics = &metricsSet{
	hits: promauto.NewCounter(prometheus.CounterOpts{
		Name: "bojstat_cache_hits_total",
		Help: "Total number of local cache hits.",
	}),
	misses: promauto.NewCounter(prometheus.CounterOpts{
		Name: "bojstat_cache_misses_total",
		Help: "Total number of local cache misses.",
	}),
	errors: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bojstat_cache_errors_total",
		Help: "Total number of local cache operation errors by operation.",
	}, []string{"operation"}),
}
