package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AndresProano/CleaningDataIt/internal/aggregator"
	"github.com/AndresProano/CleaningDataIt/internal/hub"
	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal    *prometheus.CounterVec
	ValidDatesTotal prometheus.Counter
}

// NewMetrics registers the record counters plus live values read from the
// hub and aggregator on each scrape.
func NewMetrics(h *hub.Hub, agg *aggregator.Aggregator) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleaningdata",
				Subsystem: "records",
				Name:      "total",
				Help:      "Records streamed to the dashboard by classification",
			},
			[]string{"title_class", "source_class"},
		),

		ValidDatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cleaningdata",
				Subsystem: "records",
				Name:      "valid_dates_total",
				Help:      "Records whose creation date parsed",
			},
		),
	}

	m.registry.MustRegister(
		m.RecordsTotal,
		m.ValidDatesTotal,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "cleaningdata",
			Subsystem: "hub",
			Name:      "dropped_total",
			Help:      "Rows dropped for slow dashboard consumers",
		}, func() float64 { return float64(h.Dropped()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "cleaningdata",
			Subsystem: "enrich",
			Name:      "warnings_total",
			Help:      "Per-record enrichment warnings",
		}, func() float64 { return float64(h.Warnings()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "cleaningdata",
			Subsystem: "watcher",
			Name:      "files",
			Help:      "Export files being followed",
		}, func() float64 { return float64(agg.Snapshot().FilesWatched) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "cleaningdata",
			Subsystem: "records",
			Name:      "per_second",
			Help:      "Records emitted per second over the last five seconds",
		}, func() float64 { return agg.Snapshot().RecordsPerSec }),
	)
	return m
}

// Observe counts one streamed row.
func (m *Metrics) Observe(row model.Row) {
	m.RecordsTotal.WithLabelValues(row.TitleClass, row.SourceClass).Inc()
	if row.Year != 0 {
		m.ValidDatesTotal.Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
