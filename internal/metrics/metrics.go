// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ip_ledger"

const (
	ResultOK = "ok"

	PaymentKindUpfront    = "upfront"
	PaymentKindRoyalty    = "royalty"
	PaymentKindWithdrawal = "withdrawal"
)

// Metrics exposes ledger-level instruments on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	operations  *prometheus.CounterVec
	grossVolume *prometheus.CounterVec
	platformFee *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result (ok or fault kind).",
		}, []string{"operation", "result"}),
		grossVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_gross_total",
			Help:      "Gross amount moved by completed payments, in minor units.",
		}, []string{"kind"}),
		platformFee: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_fee_total",
			Help:      "Platform fees collected, in minor units.",
		}, []string{"kind"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.operations,
		m.grossVolume,
		m.platformFee,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObservePayment(kind string, gross, fee int64) {
	if m == nil {
		return
	}
	m.grossVolume.WithLabelValues(kind).Add(float64(gross))
	m.platformFee.WithLabelValues(kind).Add(float64(fee))
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}

// Gatherer exposes the private registry, for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
