// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package careerfit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/ai/openai"
	"github.com/poiesic/careerfit/config"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/index"
	"github.com/poiesic/careerfit/pipeline"
	"github.com/poiesic/careerfit/results"
	"github.com/poiesic/careerfit/search"
	"github.com/poiesic/careerfit/storage"
	"github.com/poiesic/careerfit/storage/badger"
	"github.com/poiesic/careerfit/storage/sqlite"
	"github.com/poiesic/careerfit/websearch"
)

const closeTimeout = 30 * time.Second

// Navigator wires storage, the AI provider, the document index, and the
// analysis pipeline together.
type Navigator struct {
	cfg          *config.Config
	backend      *badger.Backend
	sqlDB        *sqlite.DB
	chunks       storage.ChunkRepository
	analyses     storage.AnalysisRepository
	provider     ai.AIProvider
	cache        *ai.CachingEmbedder
	index        *index.DocumentIndex
	searcher     *search.Searcher
	orchestrator *pipeline.Orchestrator
	results      *results.Store
	pool         *ants.Pool
	logger       *slog.Logger
}

// Option configures a Navigator.
type Option func(*options)

type options struct {
	cfg      *config.Config
	provider ai.AIProvider
	web      websearch.Searcher
	logger   *slog.Logger
}

// WithConfig sets the application config. Default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithProvider replaces the OpenAI-compatible provider built from config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithWebSearch replaces the web searcher built from config.
func WithWebSearch(web websearch.Searcher) Option {
	return func(o *options) {
		o.web = web
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open builds a Navigator. The caller must Close it.
func Open(opts ...Option) (*Navigator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Navigator{cfg: o.cfg, logger: o.logger.With("component", "navigator")}
	if err := n.open(o); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func (n *Navigator) open(o *options) error {
	cfg := n.cfg

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return err
	}
	n.backend = backend

	if cfg.Storage.UsesSQLite() {
		if n.sqlDB, err = sqlite.Open(cfg.Storage.SQLitePath); err != nil {
			return err
		}
	}
	switch cfg.Storage.ChunkBackend {
	case config.BackendSQLite:
		n.chunks = sqlite.NewChunkRepository(n.sqlDB)
	default:
		if n.chunks, err = badger.NewChunkRepository(backend); err != nil {
			return err
		}
	}
	switch cfg.Storage.ResultsBackend {
	case config.BackendSQLite:
		n.analyses = sqlite.NewAnalysisRepository(n.sqlDB)
	default:
		if n.analyses, err = badger.NewAnalysisRepository(backend); err != nil {
			return err
		}
	}

	n.provider = o.provider
	if n.provider == nil {
		if n.provider, err = openai.NewProvider(cfg.ProviderConfig()); err != nil {
			return err
		}
	}

	embedder := n.provider.Embedder()
	if cfg.Search.CacheEntries > 0 {
		if n.cache, err = ai.NewCachingEmbedder(embedder, int64(cfg.Search.CacheEntries)); err != nil {
			return err
		}
		embedder = n.cache
	}

	n.index, err = index.New(n.chunks, embedder,
		index.WithChunking(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		index.WithBatchSize(cfg.Index.EmbedBatchSize),
		index.WithPoolSize(cfg.Index.Workers),
		index.WithLogger(n.logger))
	if err != nil {
		return err
	}

	n.searcher, err = search.NewSearcher(n.chunks, embedder,
		search.WithMaxQueryLength(cfg.Search.MaxQueryLength),
		search.WithLogger(n.logger))
	if err != nil {
		return err
	}

	web := o.web
	if web == nil {
		if web, err = websearch.New(cfg.SearcherConfig()); err != nil {
			return err
		}
	}

	caller, err := pipeline.NewCaller(n.provider.Generator(),
		pipeline.WithWebSearch(web),
		pipeline.WithCallTimeout(cfg.Pipeline.CallTimeout),
		pipeline.WithBackoff(pipeline.Backoff{
			MaxAttempts: cfg.Pipeline.MaxAttempts,
			BaseDelay:   cfg.Pipeline.RetryDelay,
			MaxDelay:    cfg.Pipeline.CallTimeout,
		}),
		pipeline.WithCallerLogger(n.logger))
	if err != nil {
		return err
	}

	stages, err := pipeline.DefaultStages(pipeline.Dependencies{
		Index:      n.index,
		Retriever:  n.searcher,
		Caller:     caller,
		MaxURLs:    cfg.WebSearch.MaxURLs,
		WebResults: cfg.WebSearch.MaxResults,
		Logger:     n.logger,
	})
	if err != nil {
		return err
	}
	if n.orchestrator, err = pipeline.NewOrchestrator(stages,
		pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout),
		pipeline.WithLogger(n.logger)); err != nil {
		return err
	}

	if n.results, err = results.NewStore(n.analyses, results.WithLogger(n.logger)); err != nil {
		return err
	}

	n.pool, err = ants.NewPool(max(1, cfg.Pipeline.MaxConcurrentRuns))
	return err
}

// Close releases every resource Open acquired. It is safe on a partially
// opened Navigator.
func (n *Navigator) Close() error {
	var errs []error
	if n.pool != nil {
		// Let in-flight analyses finish before storage goes away.
		if err := n.pool.ReleaseTimeout(closeTimeout); err != nil {
			n.logger.Warn("analyses still running at close", "err", err)
		}
	}
	if n.index != nil {
		n.index.Release()
	}
	if n.cache != nil {
		n.cache.Close()
	}
	if n.provider != nil {
		if err := n.provider.Close(); err != nil {
			n.logger.Error("error closing AI provider", "err", err)
		}
	}
	if n.sqlDB != nil {
		if err := n.sqlDB.Close(); err != nil {
			n.logger.Error("error closing result database", "err", err)
			errs = append(errs, err)
		}
	}
	if n.backend != nil {
		if err := n.backend.Close(); err != nil {
			n.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Request is a submitted analysis job. Each document is given as a path or
// as text; text wins when both are set.
type Request struct {
	ResumePath      string
	ResumeText      string
	LinkedInPath    string
	LinkedInText    string
	CareerGoals     string
	CompanyPath     string
	CompanyText     string
	JobDescriptions string
	CompanyURLs     []string
}

// Validate checks that the resume, career goals, company document, and job
// descriptions are present.
func (r *Request) Validate() error {
	var missing []string
	if blank(r.ResumePath) && blank(r.ResumeText) {
		missing = append(missing, "resume")
	}
	if blank(r.CareerGoals) {
		missing = append(missing, "career_goals")
	}
	if blank(r.CompanyPath) && blank(r.CompanyText) {
		missing = append(missing, "company_data")
	}
	if blank(r.JobDescriptions) {
		missing = append(missing, "job_descriptions")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", core.ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

func (r *Request) input() pipeline.Input {
	urls := make([]string, 0, len(r.CompanyURLs))
	for _, u := range r.CompanyURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return pipeline.Input{
		Resume:          pipeline.Document{Path: r.ResumePath, Text: r.ResumeText},
		LinkedIn:        pipeline.Document{Path: r.LinkedInPath, Text: r.LinkedInText},
		CareerGoals:     r.CareerGoals,
		Company:         pipeline.Document{Path: r.CompanyPath, Text: r.CompanyText},
		JobDescriptions: r.JobDescriptions,
		CompanyURLs:     urls,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Submission is returned once an analysis has been run and saved.
type Submission struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Analyze runs the pipeline for req and saves the result. Stage failures
// degrade to fallback values; only an invalid request or a failure to save
// is returned as an error. Runs beyond the configured concurrency wait for
// a free slot.
func (n *Navigator) Analyze(ctx context.Context, req *Request) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	type outcome struct {
		sub *Submission
		err error
	}
	done := make(chan outcome, 1)
	err := n.pool.Submit(func() {
		sub, err := n.analyze(ctx, req)
		done <- outcome{sub, err}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling analysis: %w", err)
	}

	select {
	case res := <-done:
		return res.sub, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *Navigator) analyze(ctx context.Context, req *Request) (*Submission, error) {
	n.logger.Info("analysis started", "urls", len(req.CompanyURLs))
	final := n.orchestrator.Run(ctx, pipeline.NewState(req.input()))

	id, err := n.results.Save(ctx, final.Record())
	if err != nil {
		return nil, err
	}
	return &Submission{
		AnalysisID: id,
		Status:     core.StatusCompleted,
		Message:    "Compatibility analysis completed successfully",
	}, nil
}

// Get returns the full record for id.
func (n *Navigator) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	return n.results.Get(ctx, id)
}

// Summary returns the short view of the record for id.
func (n *Navigator) Summary(ctx context.Context, id string) (*core.AnalysisSummary, error) {
	return n.results.Summary(ctx, id)
}

// List returns summaries of the newest analyses.
func (n *Navigator) List(ctx context.Context, limit int) ([]*core.AnalysisSummary, error) {
	return n.results.List(ctx, limit)
}

// Index stores the document at path and returns its content hash.
func (n *Navigator) Index(ctx context.Context, path string, sourceType core.SourceType) (core.ContentHash, error) {
	return n.index.IndexFile(ctx, path, sourceType)
}

// IndexText stores text and returns its content hash.
func (n *Navigator) IndexText(ctx context.Context, text string, sourceType core.SourceType) (core.ContentHash, error) {
	return n.index.Index(ctx, text, sourceType)
}

// CanIndex reports whether a file at path has a supported format.
func (n *Navigator) CanIndex(path string) bool {
	return n.index.CanRead(path)
}

// Entries lists every indexed document.
func (n *Navigator) Entries(ctx context.Context) ([]*core.DocumentEntry, error) {
	return n.index.Entries(ctx)
}

// Search ranks the chunks of hash against query. A non-positive topK uses
// the configured default.
func (n *Navigator) Search(ctx context.Context, query string, hash core.ContentHash, topK int) ([]core.SearchResult, error) {
	return n.SearchWithMonitor(ctx, query, hash, topK, nil)
}

// SearchWithMonitor is Search with monitor callbacks at each step.
func (n *Navigator) SearchWithMonitor(ctx context.Context, query string, hash core.ContentHash, topK int, monitor search.SearchMonitor) ([]core.SearchResult, error) {
	if topK <= 0 {
		topK = n.cfg.Search.TopK
	}
	return n.searcher.SearchWithMonitor(ctx, query, hash, topK, monitor)
}

// NewWatcher returns a watcher that indexes files written under root.
func (n *Navigator) NewWatcher(root string, sourceType core.SourceType) (*index.Watcher, error) {
	return index.NewWatcher(n.index, root, sourceType, n.Filter())
}

// Filter returns the folder-indexing filter from config.
func (n *Navigator) Filter() index.Filter {
	return index.Filter{Include: n.cfg.Index.Include, Exclude: n.cfg.Index.Exclude}
}

// Config returns the effective configuration.
func (n *Navigator) Config() *config.Config {
	return n.cfg
}
