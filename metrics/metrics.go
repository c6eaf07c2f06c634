package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequests The total number of requests sent to the backend services (counter)
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "requests_total",
			Help:      "The total number of requests sent to the backend services",
		},
		[]string{"operation", "outcome"},
	)

	// GatewayRequestDuration Time spent waiting for the backend services (histogram)
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Time spent waiting for the backend services",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// CacheReloads Ticket list reloads by result (counter)
	CacheReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viewmodel",
			Name:      "reloads_total",
			Help:      "The total number of ticket list reloads",
		},
		[]string{"result"},
	)

	// OpenWorkspaces Number of sessions with a loaded ticket list (gauge)
	OpenWorkspaces = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "viewmodel",
			Name:      "open_workspaces",
			Help:      "Number of sessions with a loaded ticket list",
		},
	)

	// CommandsDispatched User commands by outcome (counter)
	CommandsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatcher",
			Name:      "commands_total",
			Help:      "The total number of dispatched user commands",
		},
		[]string{"command", "outcome"},
	)

	// MessagesProcessed The total number of processed messages (counter)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "The total number of processed messages",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed total number of message processing failures (counter)
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of message processing failures",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingDuration The total time spent processing messages (summary with quantiles 0.5, 0.9, and 0.99)
	MessagesProcessingDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "messages",
			Name:       "processing_duration_seconds",
			Help:       "The total time spent processing messages",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"topic", "handler"},
	)
)
