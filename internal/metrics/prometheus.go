// Package metrics holds the Prometheus collectors for DNS API traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the collectors below; the CLI writes it out on exit.
var Registry = prometheus.NewRegistry()

// APIRequests counts API round trips by provider, HTTP method and status code.
var APIRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dns_api_requests_total",
		Help: "Number of requests sent to the DNS provider API.",
	},
	[]string{"provider", "method", "code"},
)

// APIRequestDuration observes API round trip latency.
var APIRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dns_api_request_duration_seconds",
		Help:    "Latency of DNS provider API requests.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "method"},
)

// AppliedChanges counts record changes the API accepted, by action.
var AppliedChanges = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dns_applied_changes_total",
		Help: "Number of record changes committed to the DNS provider.",
	},
	[]string{"provider", "action"},
)

func init() {
	Registry.MustRegister(APIRequests, APIRequestDuration, AppliedChanges)
}

// ObserveRequest records one API round trip. code is 0 when no response was
// received.
func ObserveRequest(provider, method string, code int, elapsed time.Duration) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	APIRequests.WithLabelValues(provider, method, label).Inc()
	APIRequestDuration.WithLabelValues(provider, method).Observe(elapsed.Seconds())
}

// IncrementApplied counts a change that reached the API.
func IncrementApplied(provider, action string) {
	AppliedChanges.WithLabelValues(provider, action).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
