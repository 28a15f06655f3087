// Package prometheus exports engine counters through the Prometheus client
// library. The exporter is a read-side collector over engine snapshots, so
// the hot path never touches Prometheus types.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	edgeguard "github.com/beegy-labs/edgeguard"
	"github.com/beegy-labs/edgeguard/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() edgeguard.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter implements [prometheus.Collector] over engine snapshots.
type Exporter struct {
	source metricsSource

	descs   map[edgeguard.MetricID]*prometheus.Desc
	dropped *prometheus.Desc
}

// NewExporter creates an exporter reading from the given engine.
func NewExporter(engine *edgeguard.Engine) *Exporter {
	return NewExporterFromSource(engine)
}

// NewExporterFromSource creates an exporter from a custom snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	descs := make(map[edgeguard.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		descs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return &Exporter{
		source:  source,
		descs:   descs,
		dropped: prometheus.NewDesc("edgeguard_audit_dropped_total", "Audit events dropped under dispatcher backpressure.", nil, nil),
	}
}

// Describe implements [prometheus.Collector].
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- e.descs[def.ID]
	}
	ch <- e.dropped
}

// Collect implements [prometheus.Collector].
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()
	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(e.descs[def.ID], prometheus.CounterValue, float64(snapshot.Counters[def.ID]))
	}
	ch <- prometheus.MustNewConstMetric(e.dropped, prometheus.CounterValue, float64(e.source.AuditDropped()))
}

// Register adds the exporter to a registry, defaulting to the global one.
func (e *Exporter) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return reg.Register(e)
}

// Handler returns an http.Handler serving a registry holding only this
// exporter.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
