// internal/workflow/metrics.go
package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sagaRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_runs_total",
		Help: "Saga executions by outcome (success, failed, lock_timeout).",
	}, []string{"saga", "outcome"})

	stepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_step_failures_total",
		Help: "Step failures that triggered a saga unwind.",
	}, []string{"saga", "step"})

	compensationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_compensation_failures_total",
		Help: "Compensation closures that returned an error during unwind.",
	}, []string{"saga", "step"})

	lockWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saga_lock_wait_seconds",
		Help:    "Time spent waiting for the saga lock.",
		Buckets: prometheus.DefBuckets,
	}, []string{"saga"})
)
