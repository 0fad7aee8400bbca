// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Merge pipeline metrics
	mergeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelvault_merge_runs_total",
		Help: "Merge orchestrations by method and outcome",
	}, []string{"method", "outcome"}) // method=fastcopy|reencode|none, outcome=success|failure

	mergeDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelvault_merge_duration_seconds",
		Help:    "Wall-clock duration of merge orchestrations",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"method"})

	mergeInputFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelvault_merge_input_files",
		Help: "Number of candidate files consumed by the last merge run",
	})

	mergeOutputBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelvault_merge_output_bytes",
		Help: "Size of the artifact produced by the last successful merge",
	})

	transcoderInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelvault_transcoder_invocations_total",
		Help: "External transcoder invocations by strategy and outcome",
	}, []string{"strategy", "outcome"})

	// Scheduler metrics
	scheduledRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelvault_scheduled_runs_total",
		Help: "Scheduler-triggered merge runs by outcome",
	}, []string{"outcome"})

	workerQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelvault_worker_queue_depth",
		Help: "Merge jobs currently queued or running on the worker pool",
	})

	// File store metrics
	storeFiles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reelvault_store_files",
		Help: "Files currently tracked under each managed root",
	}, []string{"root"})
)

func RecordMergeRun(method, outcome string, seconds float64) {
	mergeRunsTotal.WithLabelValues(method, outcome).Inc()
	mergeDurationSeconds.WithLabelValues(method).Observe(seconds)
}

func RecordMergeInputs(n int) { mergeInputFiles.Set(float64(n)) }

func RecordMergeOutputBytes(n int64) { mergeOutputBytes.Set(float64(n)) }

func IncTranscoder(strategy, outcome string) {
	transcoderInvocations.WithLabelValues(strategy, outcome).Inc()
}

func IncScheduledRun(outcome string) { scheduledRunsTotal.WithLabelValues(outcome).Inc() }

func AddWorkerQueueDepth(delta int) { workerQueueDepth.Add(float64(delta)) }

func RecordStoreFiles(root string, n int) { storeFiles.WithLabelValues(root).Set(float64(n)) }
