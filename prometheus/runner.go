// Package prometheus provides Prometheus instrumentation for selectql services.
package prometheus

import (
	"time"

	"github.com/fwojciec/selectql"
	"github.com/prometheus/client_golang/prometheus"
)

var _ selectql.Runner = (*MetricsRunner)(nil)

// MetricsRunner wraps a Runner and records run counts, durations and
// skipped named queries.
type MetricsRunner struct {
	next selectql.Runner

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  prometheus.Counter
}

// NewMetricsRunner creates a MetricsRunner and registers its collectors with reg.
func NewMetricsRunner(next selectql.Runner, reg prometheus.Registerer) *MetricsRunner {
	r := &MetricsRunner{
		next: next,
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selectql_runs_total",
				Help: "Total number of template runs by shape and error code",
			},
			[]string{"shape", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "selectql_run_duration_seconds",
				Help:    "Template run latency in seconds, HTML parsing included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"shape"},
		),
		skipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "selectql_skipped_queries_total",
				Help: "Named queries skipped because their type was not recognized",
			},
		),
	}
	reg.MustRegister(r.runs, r.duration, r.skipped)
	return r
}

// Run delegates to the wrapped runner and records the outcome.
func (r *MetricsRunner) Run(req *selectql.Request) (any, error) {
	shape := "none"
	if req.Template != nil {
		shape = req.Template.Shape()
		r.skipped.Add(float64(len(req.Template.Skipped)))
	}

	begin := time.Now()
	res, err := r.next.Run(req)
	r.duration.WithLabelValues(shape).Observe(time.Since(begin).Seconds())

	code := "ok"
	if err != nil {
		code = selectql.ErrorCode(err)
	}
	r.runs.WithLabelValues(shape, code).Inc()

	return res, err
}
