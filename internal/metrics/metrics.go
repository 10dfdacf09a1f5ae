// Package metrics exposes per-stage Prometheus counters. Stages are short-lived batch jobs,
// so the registry is pushed to a Pushgateway instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "stock_trades"

// Metrics owns a private registry so several pipelines can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	RowsIn      *prometheus.CounterVec
	RowsOut     *prometheus.CounterVec
	RowsRejects *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	LastSuccess *prometheus.GaugeVec
	Failures    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RowsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_rows_in_total", Help: "Rows read by a stage",
		}, []string{"stage"}),
		RowsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_rows_out_total", Help: "Rows written by a stage",
		}, []string{"stage"}),
		RowsRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_rows_rejected_total", Help: "Input rows quarantined by a stage",
		}, []string{"stage"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds", Help: "Wall time of a stage run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stage_last_success_timestamp", Help: "Unix time of the last successful run",
		}, []string{"stage"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_failures_total", Help: "Failed stage runs",
		}, []string{"stage"}),
	}
	m.reg.MustRegister(m.RowsIn, m.RowsOut, m.RowsRejects, m.Duration, m.LastSuccess, m.Failures)
	return m
}

// Registry returns the registry holding the stage metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Success records a completed stage run.
func (m *Metrics) Success(stage string, in, out, rejected int, took time.Duration, at time.Time) {
	m.RowsIn.WithLabelValues(stage).Add(float64(in))
	m.RowsOut.WithLabelValues(stage).Add(float64(out))
	m.RowsRejects.WithLabelValues(stage).Add(float64(rejected))
	m.Duration.WithLabelValues(stage).Observe(took.Seconds())
	m.LastSuccess.WithLabelValues(stage).Set(float64(at.Unix()))
}

// Failure records a failed stage run.
func (m *Metrics) Failure(stage string, took time.Duration) {
	m.Failures.WithLabelValues(stage).Inc()
	m.Duration.WithLabelValues(stage).Observe(took.Seconds())
}

// Pusher sends the registry to a Pushgateway under job.
type Pusher struct {
	url string
	job string
}

// NewPusher returns nil when url is empty; a nil Pusher does nothing.
func NewPusher(url, job string) *Pusher {
	if url == "" {
		return nil
	}
	if job == "" {
		job = "stock_trades"
	}
	return &Pusher{url: url, job: job}
}

// Push replaces the job's metrics with the whole registry. Every series already carries
// its stage label, so the push is not grouped by stage.
func (p *Pusher) Push(ctx context.Context, m *Metrics) error {
	if p == nil {
		return nil
	}
	err := push.New(p.url, p.job).
		Gatherer(m.reg).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("metrics: push to %s: %w", p.url, err)
	}
	return nil
}
