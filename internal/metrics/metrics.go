// Package metrics exposes the book's activity as Prometheus counters
// and gauges. Grounded on
// DimaJoyti-ai-agentic-crypto-browser/pkg/observability/metrics.go's use
// of prometheus/client_golang, scaled down to a single in-memory book:
// no OpenTelemetry meter provider or exporter pipeline, just the
// registry and the counters this domain actually has.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ironbook/internal/book"
	"ironbook/internal/common"
	"ironbook/internal/event"
)

// Collector implements book.Observer and reports every Post, Match, and
// Cancel event to a Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	ordersPosted   *prometheus.CounterVec
	ordersCancelled *prometheus.CounterVec
	tradesExecuted  prometheus.Counter
	tradedQuantity  prometheus.Counter
	restingDepth    *prometheus.GaugeVec
}

// NewCollector builds a Collector and registers its metrics on a fresh
// registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ordersPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_posted_total",
			Help:      "Number of orders posted as resting liquidity, by side.",
		}, []string{"side"}),
		ordersCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Number of resting orders cancelled, by side.",
		}, []string{"side"}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Number of match events (partial or full) executed.",
		}),
		tradedQuantity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Aggregate quantity traded across all matches.",
		}),
		restingDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_depth",
			Help:      "Aggregate resting quantity, by side.",
		}, []string{"side"}),
	}

	registry.MustRegister(c.ordersPosted, c.ordersCancelled, c.tradesExecuted, c.tradedQuantity, c.restingDepth)
	return c
}

// Registry returns the Prometheus registry metrics were registered on,
// for wiring into an HTTP handler (promhttp.HandlerFor).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func sideLabel(kind common.OrderKind) string {
	if kind == common.Bid {
		return "bid"
	}
	return "ask"
}

// Observe implements book.Observer.
func (c *Collector) Observe(ev event.Event) {
	switch {
	case ev.Kind.Post != nil:
		c.ordersPosted.WithLabelValues(sideLabel(ev.Kind.Post.Kind())).Inc()
	case ev.Kind.Match != nil:
		c.tradesExecuted.Inc()
		for _, other := range ev.Kind.Match.Info.Others {
			c.tradedQuantity.Add(float64(other.Quantity))
		}
	case ev.Kind.Cancel != nil:
		c.ordersCancelled.WithLabelValues(sideLabel(ev.Kind.Cancel.Kind())).Inc()
	}
}

// RefreshDepth sets the resting-depth gauges from the book's current
// state. Call this after any mutating call since depth is a point-in-time
// snapshot, not something derivable from a single event.
func (c *Collector) RefreshDepth(b *book.Book) {
	bidDepth, askDepth := b.Depth()
	c.restingDepth.WithLabelValues("bid").Set(float64(bidDepth))
	c.restingDepth.WithLabelValues("ask").Set(float64(askDepth))
}

var _ book.Observer = (*Collector)(nil)
