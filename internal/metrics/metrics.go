package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/memohai/recallbot/internal/recall"
)

var (
	reasonCountDesc = prometheus.NewDesc(
		"recallbot_recall_reason_count",
		"Number of counted recall announcements by reason",
		[]string{"reason"},
		nil,
	)
	recallsTotalDesc = prometheus.NewDesc(
		"recallbot_recalls_total",
		"Total number of counted recall announcements",
		nil,
		nil,
	)
)

// StatsSource is read on every scrape.
type StatsSource interface {
	Stats() []recall.Entry
	Total() int
}

// TallyCollector is a custom Prometheus collector that reads the tally on
// each scrape.
type TallyCollector struct {
	source StatsSource
}

func NewTallyCollector(source StatsSource) *TallyCollector {
	return &TallyCollector{source: source}
}

// Describe sends the metric descriptors to the channel.
func (c *TallyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- reasonCountDesc
	ch <- recallsTotalDesc
}

// Collect emits one gauge per reason plus the overall total.
func (c *TallyCollector) Collect(ch chan<- prometheus.Metric) {
	for _, e := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(reasonCountDesc, prometheus.GaugeValue, float64(e.Count), e.Reason)
	}
	ch <- prometheus.MustNewConstMetric(recallsTotalDesc, prometheus.GaugeValue, float64(c.source.Total()))
}

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
}

// New registers the tally collector, the outcome counter and the Go runtime
// collectors.
func New(source StatsSource) *Metrics {
	reg := prometheus.NewRegistry()
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recallbot_messages_processed_total",
		Help: "Inbound messages by processing outcome",
	}, []string{"outcome"})
	reg.MustRegister(
		NewTallyCollector(source),
		outcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{registry: reg, outcomes: outcomes}
}

// RecordOutcome increments the outcome counter.
func (m *Metrics) RecordOutcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
