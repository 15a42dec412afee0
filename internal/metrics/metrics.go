package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	batchesStartedTotal   prometheus.Counter
	batchesFinishedTotal  *prometheus.CounterVec
	taskOutcomesTotal     *prometheus.CounterVec
	gradingLatencySeconds prometheus.Histogram
	inFlightTasks         prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the grading engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		batchesStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_batches_started_total",
			Help: "Total number of grading batches started.",
		})

		batchesFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_batches_finished_total",
			Help: "Total number of grading batches that reached a terminal state.",
		}, []string{"status"})

		taskOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_task_outcomes_total",
			Help: "Total number of graded files by outcome.",
		}, []string{"outcome"})

		gradingLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_collaborator_latency_seconds",
			Help:    "Latency of the external grading call per file.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		})

		inFlightTasks = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grading_tasks_in_flight",
			Help: "Number of files currently being graded.",
		})

		prometheus.MustRegister(batchesStartedTotal, batchesFinishedTotal, taskOutcomesTotal, gradingLatencySeconds, inFlightTasks)
	})
}

// BatchesStarted exposes the counter for started batches.
func BatchesStarted() prometheus.Counter {
	RegisterMetrics()
	return batchesStartedTotal
}

// BatchesFinished exposes the counter for finished batches by status.
func BatchesFinished() *prometheus.CounterVec {
	RegisterMetrics()
	return batchesFinishedTotal
}

// TaskOutcomes exposes the counter for task outcomes.
func TaskOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return taskOutcomesTotal
}

// GradingLatency exposes the collaborator latency histogram.
func GradingLatency() prometheus.Histogram {
	RegisterMetrics()
	return gradingLatencySeconds
}

// InFlightTasks exposes the gauge of tasks in the grading state.
func InFlightTasks() prometheus.Gauge {
	RegisterMetrics()
	return inFlightTasks
}
