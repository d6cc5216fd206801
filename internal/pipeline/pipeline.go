// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one bounded fetch-count-render cycle: resolve
// identifiers for a disease term, fetch their abstracts, count words, and
// build (and optionally write) the visualization document.
//
// Failures at the fetch boundary do not abort a run. They are logged,
// reported through Result.Status and Result.Err, and the run degrades to
// an empty document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/visual-medicine/internal/logger"
	"github.com/pdiddy/visual-medicine/internal/metrics"
	"github.com/pdiddy/visual-medicine/internal/pubmed"
	"github.com/pdiddy/visual-medicine/internal/viz"
	"github.com/pdiddy/visual-medicine/internal/wordindex"
	"github.com/pdiddy/visual-medicine/pkg/types"
)

// Status is the outcome of a run.
type Status string

const (
	// StatusOK means documents were found and fetched.
	StatusOK Status = "ok"

	// StatusNoDocuments means the search succeeded but matched nothing.
	StatusNoDocuments Status = "no_documents"

	// StatusSearchFailed means identifier resolution failed.
	StatusSearchFailed Status = "search_failed"

	// StatusFetchFailed means abstract retrieval failed.
	StatusFetchFailed Status = "fetch_failed"
)

// Stage names used for logging and latency metrics.
const (
	stageSearch = "search"
	stageFetch  = "fetch"
	stageIndex  = "index"
	stageBuild  = "build"
	stageWrite  = "write"
)

// Fetcher resolves identifiers and fetches abstracts. *pubmed.Client
// implements it.
type Fetcher interface {
	ResolveIdentifiers(ctx context.Context, q types.SearchQuery) ([]string, error)
	FetchAbstracts(ctx context.Context, ids []string) ([]string, error)
}

// Request holds the caller-facing parameters of one run.
type Request struct {
	Query types.SearchQuery

	// Words is the number of ranked words kept in the document.
	Words int

	// OutputPath, when set, receives the serialized document.
	OutputPath string
}

// Result describes a finished run.
type Result struct {
	Status Status

	// Err is the fetch-boundary error behind a failed Status.
	Err error

	IDs        []string
	Abstracts  []string
	Ranked     []types.WordCount
	Document   viz.Document
	OutputPath string
}

// Failed reports whether a network stage failed.
func (r Result) Failed() bool {
	return r.Status == StatusSearchFailed || r.Status == StatusFetchFailed
}

// Pipeline wires the fetcher, indexer, and builder together.
type Pipeline struct {
	fetcher   Fetcher
	stopwords wordindex.Stopwords
	cfg       types.VisualizationConfig
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics records run outcomes and stage latencies on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New returns a Pipeline over an already-loaded stopword set.
func New(fetcher Fetcher, stopwords wordindex.Stopwords, cfg types.VisualizationConfig, opts ...Option) *Pipeline {
	if stopwords == nil {
		stopwords = wordindex.NewStopwords()
	}
	p := &Pipeline{
		fetcher:   fetcher,
		stopwords: stopwords,
		cfg:       cfg,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "pipeline")
	return p
}

// NewFromConfig validates cfg, loads the stopword list, and builds a
// Pipeline backed by a PubMed client.
func NewFromConfig(cfg types.PipelineConfig, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	stopwords, err := wordindex.LoadStopwords(cfg.Index.StopwordsPath)
	if err != nil {
		return nil, err
	}
	return New(pubmed.NewClient(cfg.PubMed), stopwords, cfg.Visualization, opts...), nil
}

// Run executes one cycle. The returned error covers invalid parameters and
// local failures (document build, output write). Network failures are
// reported in Result instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Query.Validate(); err != nil {
		return Result{}, err
	}
	log := p.log.With("term", req.Query.Term)

	res := Result{Status: StatusOK, IDs: []string{}, Abstracts: []string{}}

	start := time.Now()
	log.Info("resolving document identifiers", "max_documents", req.Query.MaxDocuments)
	ids, err := p.fetcher.ResolveIdentifiers(ctx, req.Query)
	p.metrics.ObserveStage(stageSearch, time.Since(start))
	switch {
	case err != nil:
		log.Warn("identifier resolution failed", "err", err)
		res.Status, res.Err = StatusSearchFailed, err
	case len(ids) == 0:
		log.Info("no documents matched")
		res.Status = StatusNoDocuments
	default:
		res.IDs = ids
	}

	if len(res.IDs) > 0 {
		start = time.Now()
		log.Info("fetching abstracts", "documents", len(res.IDs))
		abstracts, err := p.fetcher.FetchAbstracts(ctx, res.IDs)
		p.metrics.ObserveStage(stageFetch, time.Since(start))
		if err != nil {
			log.Warn("abstract fetch failed", "err", err)
			res.Status, res.Err = StatusFetchFailed, err
		} else {
			res.Abstracts = abstracts
		}
	}

	start = time.Now()
	table := wordindex.BuildFrequencyTable(res.Abstracts, p.stopwords)
	res.Ranked = wordindex.Rank(table)
	p.metrics.ObserveStage(stageIndex, time.Since(start))
	log.Info("built word index", "abstracts", len(res.Abstracts), "distinct_words", len(table), "occurrences", table.Total())

	start = time.Now()
	doc, err := viz.BuildLayout(p.cfg.Layout, res.Ranked, req.Words, p.cfg.SizeFactor)
	if err != nil {
		return res, fmt.Errorf("building visualization: %w", err)
	}
	res.Document = doc
	p.metrics.ObserveStage(stageBuild, time.Since(start))

	if req.OutputPath != "" {
		start = time.Now()
		if err := viz.WriteFile(req.OutputPath, doc); err != nil {
			return res, fmt.Errorf("writing visualization: %w", err)
		}
		p.metrics.ObserveStage(stageWrite, time.Since(start))
		res.OutputPath = req.OutputPath
		log.Info("wrote visualization", "path", req.OutputPath, "words", doc.Leaves())
	}

	p.metrics.RecordRun(string(res.Status), len(res.IDs), len(res.Abstracts), table.Total())
	return res, nil
}
