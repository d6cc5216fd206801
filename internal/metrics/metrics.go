// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors for pipeline runs and the
// HTTP front end, and exposes a handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so the CLI can run the pipeline without a registry.
type Metrics struct {
	PipelineRunsTotal   *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	DocumentsFetched    prometheus.Counter
	AbstractsParsed     prometheus.Counter
	WordsCounted        prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visual_medicine_pipeline_runs_total",
				Help: "Pipeline runs by outcome (ok, no_documents, search_failed, fetch_failed).",
			},
			[]string{"status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visual_medicine_stage_duration_seconds",
				Help:    "Latency of each pipeline stage in seconds.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		DocumentsFetched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visual_medicine_documents_resolved_total",
				Help: "Total document identifiers resolved by esearch.",
			},
		),
		AbstractsParsed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visual_medicine_abstracts_parsed_total",
				Help: "Total abstracts extracted from efetch records.",
			},
		),
		WordsCounted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visual_medicine_words_counted_total",
				Help: "Total word occurrences counted after filtering.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visual_medicine_http_requests_total",
				Help: "HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visual_medicine_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.PipelineRunsTotal,
		m.StageDuration,
		m.DocumentsFetched,
		m.AbstractsParsed,
		m.WordsCounted,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts one finished pipeline run.
func (m *Metrics) RecordRun(status string, documents, abstracts, words int) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	m.DocumentsFetched.Add(float64(documents))
	m.AbstractsParsed.Add(float64(abstracts))
	m.WordsCounted.Add(float64(words))
}

// RecordRequest counts one served HTTP request.
func (m *Metrics) RecordRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
