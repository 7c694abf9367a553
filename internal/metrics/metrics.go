package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: сколько событий приняли, в разрезе kind
	IngestedEvents *prometheus.CounterVec

	// Errors: батчи, отбитые валидацией (батч отклоняется целиком)
	RejectedBatches prometheus.Counter

	// Размер принятых батчей (для подбора flush-интервала капчура)
	BatchSize prometheus.Histogram

	// Latency вычисления диффа двух ранов
	DiffDuration prometheus.Histogram

	// Попадания/промахи кэша производных представлений
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		IngestedEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "afr_ingested_events_total",
			Help: "Total number of events accepted by ingest.",
		}, []string{"kind"}),

		RejectedBatches: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "afr_rejected_batches_total",
			Help: "Total number of ingest batches rejected by validation.",
		}),

		BatchSize: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "afr_ingest_batch_size",
			Help:    "Distribution of accepted ingest batch sizes.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		DiffDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "afr_diff_duration_seconds",
			Help:    "Histogram of semantic diff computation latency.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		CacheHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "afr_cache_hits_total",
			Help: "Cache hits for derived views.",
		}, []string{"cache"}),

		CacheMisses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "afr_cache_misses_total",
			Help: "Cache misses for derived views.",
		}, []string{"cache"}),
	}
}
