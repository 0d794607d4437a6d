// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monitoring exposes pipeline metrics to Prometheus and serves the
// monitor's health and status endpoints.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "research_radar"

// Evaluation outcome labels.
const (
	OutcomeAssessed = "assessed"
	OutcomeFailed   = "failed"
)

// Recorder holds the pipeline metrics. A nil *Recorder records nothing, so
// callers that do not export metrics can pass nil.
type Recorder struct {
	papersFetched  *prometheus.CounterVec
	scraperErrors  *prometheus.CounterVec
	papersRejected *prometheus.CounterVec
	evaluations    *prometheus.CounterVec
	findings       *prometheus.CounterVec
	checkpoint     prometheus.Gauge
}

// NewRecorder registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		papersFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Papers returned by each source.",
		}, []string{"source"}),
		scraperErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scraper_errors_total",
			Help:      "Source fetches that failed outright.",
		}, []string{"source"}),
		papersRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_rejected_total",
			Help:      "Papers dropped by the quality filter, by reason type.",
		}, []string{"reason"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "LLM evaluations by outcome.",
		}, []string{"outcome"}),
		findings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings written, by tier.",
		}, []string{"tier"}),
		checkpoint: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_timestamp_seconds",
			Help:      "Unix time of the monitor checkpoint.",
		}),
	}
}

// PapersFetched adds n papers fetched from source.
func (r *Recorder) PapersFetched(source string, n int) {
	if r == nil {
		return
	}
	r.papersFetched.WithLabelValues(source).Add(float64(n))
}

// ScraperError counts a failed source fetch.
func (r *Recorder) ScraperError(source string) {
	if r == nil {
		return
	}
	r.scraperErrors.WithLabelValues(source).Inc()
}

// PaperRejected counts a quality-filter rejection by reason type.
func (r *Recorder) PaperRejected(reason string) {
	if r == nil {
		return
	}
	r.papersRejected.WithLabelValues(reason).Inc()
}

// Evaluation counts an evaluation outcome.
func (r *Recorder) Evaluation(outcome string) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(outcome).Inc()
}

// Finding counts a written finding.
func (r *Recorder) Finding(tier string) {
	if r == nil {
		return
	}
	r.findings.WithLabelValues(tier).Inc()
}

// Checkpoint publishes the checkpoint time.
func (r *Recorder) Checkpoint(t time.Time) {
	if r == nil {
		return
	}
	r.checkpoint.Set(float64(t.Unix()))
}
