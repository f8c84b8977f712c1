package resultcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

func newMetrics(registerer prometheus.Registerer) metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return metrics{
		hits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iql_result_cache_hits_total",
				Help: "Number of hits for a result cache lookup.",
			},
			[]string{"kind"},
		),
		misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iql_result_cache_misses_total",
				Help: "Number of misses for a result cache lookup.",
			},
			[]string{"kind"},
		),
	}
}

func (m metrics) observe(kind Kind, hit bool) {
	if hit {
		m.hits.WithLabelValues(kind.String()).Inc()
	} else {
		m.misses.WithLabelValues(kind.String()).Inc()
	}
}
