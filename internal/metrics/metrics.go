package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Telemetry messages consumed from the broker, by message type
	TelemetryMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catchleader_telemetry_messages_total",
		Help: "Total telemetry messages consumed, labelled by message type",
	}, []string{"type"})

	// Intercept solves that declined to produce a target, by reason
	SolverBlockedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catchleader_solver_blocked_total",
		Help: "Intercept solves blocked by a precondition, labelled by reason",
	}, []string{"reason"})

	// Position targets handed to the command sink
	TargetsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catchleader_targets_emitted_total",
		Help: "Total position-target commands emitted",
	})

	// Discrete speed-change commands (after de-duplication)
	SpeedCommandsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catchleader_speed_commands_total",
		Help: "Total speed-change commands emitted",
	})

	// Outbound publishes that failed and were dropped
	PublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catchleader_publish_failures_total",
		Help: "Total outbound command publishes that failed",
	})

	// History rows dropped because the recorder queue was full
	HistoryRowsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catchleader_history_rows_dropped_total",
		Help: "Total track/target history rows dropped under backpressure",
	})

	// Guidance tick evaluation latency
	SolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catchleader_solve_duration_seconds",
		Help:    "Time taken to evaluate one guidance tick",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8), // 10µs to ~160ms
	})
)
