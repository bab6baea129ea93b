package httpapi

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
	"github.com/KaramelBytes/scoreloom-cli/internal/service"
)

// Metrics holds the server's collectors on a dedicated registry.
type Metrics struct {
	registry   *prometheus.Registry
	imported   prometheus.Counter
	dropped    *prometheus.CounterVec
	duplicates prometheus.Counter
	requests   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreloom",
			Name:      "records_imported_total",
			Help:      "Records committed by bulk imports.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreloom",
			Name:      "rows_dropped_total",
			Help:      "Rows removed during import normalization, by reason.",
		}, []string{"reason"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoreloom",
			Name:      "duplicates_rejected_total",
			Help:      "Inserts stopped by a duplicate record.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoreloom",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(m.imported, m.dropped, m.duplicates, m.requests)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeImport(res *service.ImportResult, err error) {
	if res != nil {
		m.imported.Add(float64(res.Added))
		rep := res.Report
		m.dropped.WithLabelValues("empty").Add(float64(rep.DroppedEmpty))
		m.dropped.WithLabelValues("missing_required").Add(float64(rep.DroppedMissingRequired))
		m.dropped.WithLabelValues("invalid_numeric").Add(float64(rep.DroppedInvalidNumeric))
		m.dropped.WithLabelValues("out_of_range").Add(float64(rep.DroppedOutOfRange))
	}
	m.observeInsert(err)
}

func (m *Metrics) observeInsert(err error) {
	if errors.Is(err, record.ErrDuplicateDetected) {
		m.duplicates.Inc()
	}
}
