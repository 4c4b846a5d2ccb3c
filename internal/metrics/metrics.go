package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookstore"

// Checkout results recorded on bookstore_checkouts_total.
const (
	CheckoutSucceeded = "succeeded"
	CheckoutEmpty     = "empty_cart"
	CheckoutConflict  = "conflict"
	CheckoutFailed    = "failed"
)

type Metrics struct {
	CatalogSearches prometheus.Counter
	CartAdds        prometheus.Counter
	Checkouts       *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	EventsPublished prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		CatalogSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Catalog searches served",
		}),
		CartAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_adds_total",
			Help:      "Books added to carts",
		}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result",
		}, []string{"result"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Record store failures by operation",
		}, []string{"op"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_published_total",
			Help:      "Outbox events delivered to the broker",
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.CatalogSearches, m.CartAdds, m.Checkouts, m.StoreErrors, m.EventsPublished)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// The recording helpers below are no-ops on a nil *Metrics.

func (m *Metrics) SearchServed() {
	if m != nil {
		m.CatalogSearches.Inc()
	}
}

func (m *Metrics) CartAdded() {
	if m != nil {
		m.CartAdds.Inc()
	}
}

func (m *Metrics) EventPublished() {
	if m != nil {
		m.EventsPublished.Inc()
	}
}

func (m *Metrics) StoreError(op string) {
	if m != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) Checkout(result string) {
	if m != nil {
		m.Checkouts.WithLabelValues(result).Inc()
	}
}
