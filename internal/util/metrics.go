package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart state transitions by intent",
	}, []string{"intent"})

	CartRehydrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_rehydrations_total",
		Help: "Total number of cart rehydration attempts by outcome",
	}, []string{"outcome"})

	CartPersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Total number of failed cart persistence writes",
	})

	CartSyncEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_events_total",
		Help: "Total number of cross-session cart updates applied",
	})

	NotificationsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_published_total",
		Help: "Total number of notifications published by variant",
	}, []string{"variant"})

	CheckoutAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout session attempts",
	})

	CheckoutSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_success_total",
		Help: "Total number of checkout sessions created",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of payment provider handoff",
		Buckets: prometheus.DefBuckets,
	})

	CatalogQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_latency_seconds",
		Help:    "Latency of catalog queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	WorkerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_events_total",
		Help: "Total number of payment outcome events processed",
	}, []string{"type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
