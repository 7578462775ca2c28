package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "forwarder"

	PoolSubsystem     = "pool"
	PipelineSubsystem = "pipeline"
)

// Метрики пайплайна обработки сообщений.
var (
	MessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PipelineSubsystem,
			Name:      "messages_processed_total",
			Help:      "Total number of processed messages by outcome status",
		},
		[]string{"status"},
	)

	MessageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: PipelineSubsystem,
			Name:      "message_processing_duration_seconds",
			Help:      "Message processing duration in seconds (p50, p95, p99)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PipelineSubsystem,
			Name:      "rate_limited_total",
			Help:      "Total number of messages dropped by the rate limiter",
		},
	)

	PendingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PipelineSubsystem,
			Name:      "pending_decisions_total",
			Help:      "Total number of approval decisions on pending messages",
		},
		[]string{"decision"},
	)
)

// Метрики пула воркеров.
var (
	ActiveSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "active_sessions",
			Help:      "Number of currently assigned sessions",
		},
	)

	WorkerSessionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "worker_sessions",
			Help:      "Number of sessions owned by each worker",
		},
		[]string{"worker"},
	)

	WorkerCrashesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "worker_crashes_total",
			Help:      "Total number of detected worker crashes",
		},
	)

	SessionMigrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "session_migrations_total",
			Help:      "Total number of sessions migrated during rebalancing",
		},
	)

	MemoryPressureEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "memory_pressure_events_total",
			Help:      "Total number of memory pressure events handled",
		},
	)

	HostMemoryPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "host_memory_percent",
			Help:      "Last sampled host memory usage percent",
		},
	)

	HostCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PoolSubsystem,
			Name:      "host_cpu_percent",
			Help:      "Last sampled host CPU usage percent",
		},
	)
)

func RecordMessageProcessed(status string, duration time.Duration) {
	MessagesProcessedTotal.WithLabelValues(status).Inc()
	MessageProcessingDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

func RecordPendingDecision(decision string) {
	PendingDecisionsTotal.WithLabelValues(decision).Inc()
}

func RecordWorkerCrash() {
	WorkerCrashesTotal.Inc()
}

func RecordSessionMigration() {
	SessionMigrationsTotal.Inc()
}

func RecordMemoryPressure() {
	MemoryPressureEventsTotal.Inc()
}

func UpdateWorkerSessions(workerID string, count float64) {
	WorkerSessionsGauge.WithLabelValues(workerID).Set(count)
}

func UpdateHostResources(cpuPercent, memPercent float64) {
	HostCPUPercent.Set(cpuPercent)
	HostMemoryPercent.Set(memPercent)
}
