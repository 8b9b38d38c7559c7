package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	latency  *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rates",
			Name:      "request_duration_seconds",
			Help:      "Pricing request latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"route"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rates",
			Name:      "requests_total",
			Help:      "Pricing requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.latency, m.requests)
	return m
}

func (m *metrics) observe(route string, status int, elapsed time.Duration) {
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
