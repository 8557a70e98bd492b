// Package metrics holds the Prometheus collectors of the seqgrad runner.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seqgrad_jobs_total",
		Help: "Total number of filter-gradient jobs by outcome",
	}, []string{"backend", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seqgrad_job_duration_seconds",
		Help:    "Duration of a full backward call (dense pass plus correction)",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	}, []string{"backend"})

	kernelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seqgrad_kernel_duration_seconds",
		Help:    "Duration of a single kernel launch",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	}, []string{"backend", "kernel"})

	samplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seqgrad_samples_total",
		Help: "Total number of packed samples processed",
	}, []string{"backend"})

	parityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seqgrad_parity_checks_total",
		Help: "Total number of reference parity checks by result",
	}, []string{"backend", "result"})
)

// Outcome labels for ObserveJob.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Kernel labels for ObserveKernel.
const (
	KernelDense      = "dense"
	KernelCorrection = "correction"
)

// ObserveJob records one finished job. elapsed and nsample are only
// recorded for successful jobs.
func ObserveJob(backend, outcome string, nsample int, elapsed time.Duration) {
	jobsTotal.WithLabelValues(backend, outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	jobDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	samplesTotal.WithLabelValues(backend).Add(float64(nsample))
}

// ObserveKernel records one timed kernel launch.
func ObserveKernel(backend, kernel string, elapsed time.Duration) {
	kernelDuration.WithLabelValues(backend, kernel).Observe(elapsed.Seconds())
}

// ObserveCheck records one parity check.
func ObserveCheck(backend string, ok bool) {
	result := "pass"
	if !ok {
		result = "fail"
	}
	parityChecks.WithLabelValues(backend, result).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
