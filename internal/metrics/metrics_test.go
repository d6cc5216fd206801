// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecordRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRun("ok", 10, 8, 420)
	m.RecordRun("search_failed", 0, 0, 0)

	body := scrape(t, m)
	assert.Contains(t, body, `visual_medicine_pipeline_runs_total{status="ok"} 1`)
	assert.Contains(t, body, `visual_medicine_pipeline_runs_total{status="search_failed"} 1`)
	assert.Contains(t, body, "visual_medicine_documents_resolved_total 10")
	assert.Contains(t, body, "visual_medicine_abstracts_parsed_total 8")
	assert.Contains(t, body, "visual_medicine_words_counted_total 420")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRun("ok", 1, 1, 1)
		m.ObserveStage("search", time.Second)
		m.RecordRequest("/", "200", time.Millisecond)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveStage("index", 20*time.Millisecond)
	m.RecordRequest("/visualize", "200", 50*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `visual_medicine_stage_duration_seconds_count{stage="index"} 1`)
	assert.Contains(t, body, `visual_medicine_http_requests_total{route="/visualize",status="200"} 1`)
}
