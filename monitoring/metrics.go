// Package monitoring exposes the service's Prometheus metrics.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mlinfer"

var (
	InvocationCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invocation",
		Name:      "total",
		Help:      "Counter of invocations by host and response status code.",
	}, []string{"host", "code"})

	InvocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "invocation",
		Name:      "duration_seconds",
		Help:      "Histogram of invocation handling time.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
	}, []string{"host"})

	PredictionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prediction",
		Name:      "total",
		Help:      "Counter of prediction outcomes by kind.",
	}, []string{"outcome"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
