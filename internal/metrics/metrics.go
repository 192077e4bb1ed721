// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rece"

var (
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "RPC requests by procedure and Connect code.",
	}, []string{"procedure", "code"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC handler latency by procedure.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	MutationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipt_mutations_total",
		Help:      "Receipt mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	AllocationCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocation_cache_total",
		Help:      "Allocation cache lookups by result (hit or miss).",
	}, []string{"result"})

	DocstoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "docstore_ops_total",
		Help:      "Document store operations by kind and status.",
	}, []string{"op", "status"})

	Subscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "docstore_subscriptions",
		Help:      "Live document subscriptions.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "HTTP gateway requests by route pattern and status.",
	}, []string{"route", "status"})
)

// CacheResult labels an allocation cache lookup.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
