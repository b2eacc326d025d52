// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors. Construct with New; the
// zero value panics on use.
type Metrics struct {
	registry *prometheus.Registry

	ChatRequests    *prometheus.CounterVec
	GatewayTimeouts prometheus.Counter
	RequestDuration prometheus.Histogram
	QueueDepth      prometheus.Gauge
}

// New creates and registers the gateway collectors on a private registry.
// A private registry keeps tests independent and avoids the global default
// registry's duplicate-registration panics.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by terminal status",
		}, []string{"status"}),
		GatewayTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wait_timeouts_total",
			Help:      "Requests that expired waiting for the pipeline result",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "End-to-end duration of /chat/sync requests",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Tasks waiting to be claimed by a worker",
		}),
	}

	registry.MustRegister(m.ChatRequests, m.GatewayTimeouts, m.RequestDuration, m.QueueDepth)
	return m
}

// Handler returns the HTTP handler serving this registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
