package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedq_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speedq_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Command queue metrics
	CommandsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedq_commands_enqueued_total",
			Help: "Total commands enqueued",
		},
		[]string{"type", "source"},
	)

	BeaconsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedq_beacons_suppressed_total",
			Help: "Beacon intents dropped inside the cooldown window",
		},
	)

	CommandsDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedq_commands_drained_total",
			Help: "Total commands handed to the router",
		},
	)

	Confirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedq_confirmations_total",
			Help: "Router confirmations by result",
		},
		[]string{"result"}, // "completed", "failed", "not_found", "already_final"
	)

	// Reconciliation metrics
	DriftCorrections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedq_drift_corrections_total",
			Help: "Set-speed commands issued to correct drift",
		},
	)

	NoQueueEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedq_noqueue_evictions_total",
			Help: "Disconnects issued for sessions without a queue",
		},
	)

	SnapshotsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedq_snapshots_received_total",
			Help: "Session snapshots pushed by the router",
		},
	)

	// Gauges
	PendingCommands = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speedq_pending_commands",
			Help: "Commands waiting for the next router poll",
		},
	)

	HistoryCommands = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speedq_history_commands",
			Help: "Commands retained in history",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speedq_active_sessions",
			Help: "Sessions in the last router snapshot",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedq_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedq_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speedq_router_auth_failures_total",
			Help: "Router endpoint calls rejected for a bad secret",
		},
	)
)
