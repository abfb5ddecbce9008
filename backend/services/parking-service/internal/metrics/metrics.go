package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parking"

// Metrics groups the service's prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	entriesCreated   prometheus.Counter
	duplicateEntries prometheus.Counter
	exits            *prometheus.CounterVec
	misconfigured    *prometheus.CounterVec
	chargedAmount    prometheus.Histogram
	billedHours      prometheus.Histogram
	feedClients      prometheus.Gauge
}

// New registers collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		entriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_created_total",
			Help:      "Vehicles checked in.",
		}),
		duplicateEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_duplicate_total",
			Help:      "Check-ins rejected because the vehicle already had an active entry.",
		}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exits_total",
			Help:      "Vehicles checked out, by billing outcome.",
		}, []string{"outcome"}),
		misconfigured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_misconfigured_total",
			Help:      "Exits billed at zero because of missing vehicle type or rates.",
		}, []string{"reason"}),
		chargedAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "charged_amount",
			Help:      "Amount charged per exit.",
			Buckets:   []float64{0, 50, 100, 200, 400, 800, 1600, 3200},
		}),
		billedHours: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "billed_hours",
			Help:      "Billed hours per exit.",
			Buckets:   []float64{0, 1, 2, 3, 6, 12, 24, 48},
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_clients",
			Help:      "Connected live feed websocket clients.",
		}),
	}
	reg.MustRegister(
		m.entriesCreated,
		m.duplicateEntries,
		m.exits,
		m.misconfigured,
		m.chargedAmount,
		m.billedHours,
		m.feedClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) EntryCreated() {
	if m == nil {
		return
	}
	m.entriesCreated.Inc()
}

func (m *Metrics) DuplicateEntry() {
	if m == nil {
		return
	}
	m.duplicateEntries.Inc()
}

// Exit records a completed exit.
func (m *Metrics) Exit(outcome string, hours int, amount float64) {
	if m == nil {
		return
	}
	m.exits.WithLabelValues(outcome).Inc()
	m.billedHours.Observe(float64(hours))
	m.chargedAmount.Observe(amount)
}

func (m *Metrics) Misconfigured(reason string) {
	if m == nil {
		return
	}
	m.misconfigured.WithLabelValues(reason).Inc()
}

// FeedClients exposes the connected-clients gauge.
func (m *Metrics) FeedClients() prometheus.Gauge {
	if m == nil {
		return nil
	}
	return m.feedClients
}

func (m *Metrics) FeedClientConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

func (m *Metrics) FeedClientDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}
