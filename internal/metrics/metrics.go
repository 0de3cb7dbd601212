// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values shared by the backup and restore counters.
const (
	ResultSuccess   = "success"
	ResultEmpty     = "empty"
	ResultCancelled = "cancelled"
	ResultBusy      = "busy"
	ResultFailed    = "failed"
)

var (
	// Backup Producer Metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinkdiary_backups_total",
			Help: "Total number of backup attempts by scope and result",
		},
		[]string{"scope", "result"},
	)

	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinkdiary_backup_duration_seconds",
			Help:    "Duration of backup production in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	BackupArtifactBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pinkdiary_backup_artifact_bytes",
			Help:    "Size of encoded backup artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
		},
	)

	BackupRecords = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinkdiary_backup_records",
			Help:    "Number of diary records per backup artifact",
			Buckets: []float64{1, 5, 10, 31, 100, 365, 1000, 5000},
		},
		[]string{"scope"},
	)

	// Sink Metrics
	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinkdiary_sink_writes_total",
			Help: "Artifact writes per sink and result",
		},
		[]string{"sink", "result"},
	)

	SinkFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinkdiary_sink_fallbacks_total",
			Help: "Number of times a sink failed and the next sink in the chain was tried",
		},
		[]string{"sink"},
	)

	// Restore Consumer Metrics
	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinkdiary_restores_total",
			Help: "Total number of restore attempts by scope and result",
		},
		[]string{"scope", "result"},
	)

	RestoreRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pinkdiary_restore_records_total",
			Help: "Diary records written by restores",
		},
	)

	RestoreState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pinkdiary_restore_state",
			Help: "Current restore state (0=idle 1=decoding 2=validating 3=awaiting_confirmation 4=applying 5=done 6=cancelled 7=failed)",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinkdiary_store_operation_duration_seconds",
			Help:    "Duration of record store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation", "driver"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinkdiary_store_operation_errors_total",
			Help: "Total number of failed record store operations",
		},
		[]string{"operation", "driver"},
	)

	// Scheduler Metrics
	SchedulerLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pinkdiary_scheduler_last_run_timestamp",
			Help: "Unix timestamp of the last scheduled backup run",
		},
	)

	SchedulerNextRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pinkdiary_scheduler_next_run_timestamp",
			Help: "Unix timestamp of the next scheduled backup run",
		},
	)

	// HTTP Metrics (serve command)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinkdiary_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinkdiary_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pinkdiary_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// RecordBackup records the outcome of one backup attempt.
func RecordBackup(scope, result string, duration time.Duration, records int, size int64) {
	BackupsTotal.WithLabelValues(scope, result).Inc()
	BackupDuration.WithLabelValues(scope).Observe(duration.Seconds())
	if result == ResultSuccess {
		BackupRecords.WithLabelValues(scope).Observe(float64(records))
		BackupArtifactBytes.Observe(float64(size))
	}
}

// RecordSinkWrite records a write attempt against a named sink.
func RecordSinkWrite(sink string, err error) {
	if err != nil {
		SinkWrites.WithLabelValues(sink, ResultFailed).Inc()
		SinkFallbacks.WithLabelValues(sink).Inc()
		return
	}
	SinkWrites.WithLabelValues(sink, ResultSuccess).Inc()
}

// RecordRestore records the outcome of one restore attempt.
func RecordRestore(scope, result string, records int) {
	RestoresTotal.WithLabelValues(scope, result).Inc()
	if result == ResultSuccess {
		RestoreRecords.Add(float64(records))
	}
}

// SetRestoreState publishes the numeric restore state.
func SetRestoreState(state int) {
	RestoreState.Set(float64(state))
}

// RecordStoreOperation records a store operation metric.
func RecordStoreOperation(operation, driver string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, driver).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, driver).Inc()
	}
}

// RecordSchedulerRun records the last and next scheduled run times.
func RecordSchedulerRun(last, next time.Time) {
	if !last.IsZero() {
		SchedulerLastRun.Set(float64(last.Unix()))
	}
	SchedulerNextRun.Set(float64(next.Unix()))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
		return
	}
	HTTPActiveRequests.Dec()
}
