// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/visual-medicine/internal/logger"
	"github.com/pdiddy/visual-medicine/internal/metrics"
	"github.com/pdiddy/visual-medicine/internal/pipeline"
	"github.com/pdiddy/visual-medicine/internal/pubmed"
	"github.com/pdiddy/visual-medicine/internal/viz"
	"github.com/pdiddy/visual-medicine/internal/wordindex"
	"github.com/pdiddy/visual-medicine/pkg/types"
)

// stubFetcher returns the same corpus for every term.
type stubFetcher struct {
	searchErr error

	mu    sync.Mutex
	terms []string
}

func (f *stubFetcher) ResolveIdentifiers(_ context.Context, q types.SearchQuery) ([]string, error) {
	f.mu.Lock()
	f.terms = append(f.terms, q.Term)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []string{"1", "2"}, nil
}

func (f *stubFetcher) FetchAbstracts(_ context.Context, _ []string) ([]string, error) {
	return []string{"insulin resistance and insulin signaling", "insulin therapy"}, nil
}

type errRunner struct{}

func (errRunner) Run(context.Context, pipeline.Request) (pipeline.Result, error) {
	return pipeline.Result{}, errors.New("disk full")
}

func testServer(t *testing.T, f pipeline.Fetcher) (*Server, string) {
	t.Helper()
	cfg := types.DefaultPipelineConfig()
	cfg.Server.OutputDir = t.TempDir()
	cfg.Visualization.SizeFactor = cfg.Server.SizeFactor

	p := pipeline.New(f, wordindex.NewStopwords("and"), cfg.Visualization)
	m := metrics.New(prometheus.NewRegistry())
	return New(p, cfg, logger.Discard(), m), cfg.Server.OutputDir
}

func TestVisualize(t *testing.T) {
	f := &stubFetcher{}
	s, outDir := testServer(t, f)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visualize?disease=diabetes&count=20&words=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", rec.Header().Get(HeaderStatus))
	assert.Equal(t, "2", rec.Header().Get(HeaderDocuments))

	var doc viz.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, viz.RootName, doc.Name)
	require.Len(t, doc.Children, 2)
	assert.Equal(t, viz.Node{Name: "insulin", Size: 3 * types.WebSizeFactor}, doc.Children[0])

	file := rec.Header().Get(HeaderOutputFile)
	require.NotEmpty(t, file)
	written, err := viz.ReadFile(filepath.Join(outDir, file))
	require.NoError(t, err)
	assert.Equal(t, doc, written)
	assert.Equal(t, []string{"diabetes"}, f.terms)
}

func TestVisualizeRequestScopedOutput(t *testing.T) {
	s, outDir := testServer(t, &stubFetcher{})
	router := s.Router()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visualize?disease=gout", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "each request writes its own file")
}

func TestVisualizeMissingDisease(t *testing.T) {
	s, _ := testServer(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visualize?count=5", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "search term is empty")
}

func TestVisualizeSearchFailure(t *testing.T) {
	f := &stubFetcher{searchErr: &pubmed.FetchError{Op: "esearch", URL: "http://x", StatusCode: 503}}
	s, _ := testServer(t, f)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visualize?term=gout", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "search_failed", rec.Header().Get(HeaderStatus))
	assert.JSONEq(t, `{"name": "Visual Medicine", "children": []}`, rec.Body.String())
}

func TestVisualizeRunnerError(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	s := New(errRunner{}, cfg, logger.Discard(), nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visualize?disease=gout", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")
}

func TestIndexAndHealth(t *testing.T) {
	s, _ := testServer(t, &stubFetcher{})
	router := s.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/visualize")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	s, _ := testServer(t, &stubFetcher{})
	router := s.Router()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `visual_medicine_http_requests_total{route="/healthz",status="200"} 1`)
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 50},
		{"abc", 50},
		{"-4", 50},
		{"0", 50},
		{"25", 25},
		{"100000", 100},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, clampInt(tt.raw, 50, 100))
		})
	}
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	cfg := types.DefaultPipelineConfig()
	cfg.Server.Addr = addr
	cfg.Server.ShutdownTimeout = time.Second
	s := New(errRunner{}, cfg, logger.Discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
