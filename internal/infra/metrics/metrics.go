// Package metrics holds the Prometheus collectors for calls into the CAD
// application and an optional HTTP server exposing them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ForeignCallsTotal tracks foreign calls by operation and outcome
	// (ok, error, exhausted).
	ForeignCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acadcom_foreign_calls_total",
			Help: "Total number of calls into the automation object graph",
		},
		[]string{"op", "outcome"},
	)

	// ForeignRetriesTotal tracks retries caused by busy status codes.
	ForeignRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acadcom_foreign_retries_total",
			Help: "Total number of retried foreign calls",
		},
		[]string{"op", "code"},
	)

	// ForeignBackoffSeconds tracks time spent waiting for a busy application.
	ForeignBackoffSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acadcom_foreign_backoff_seconds_total",
			Help: "Total seconds slept waiting for the application to become available",
		},
		[]string{"op"},
	)

	// SessionUp is 1 while the application answers health checks.
	SessionUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "acadcom_session_up",
			Help: "Whether the automation session answered the last health check",
		},
	)
)
