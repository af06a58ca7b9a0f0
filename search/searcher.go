package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
)

// DefaultMaxQueryLength bounds the number of query runes sent to the embedder.
const DefaultMaxQueryLength = 1000

// Searcher ranks the chunks of a single document against a query.
type Searcher struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxQueryLength int
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithMaxQueryLength sets the query truncation limit in runes.
func WithMaxQueryLength(limit int) Option {
	return func(s *Searcher) error {
		if limit < 1 {
			return fmt.Errorf("max query length must be positive, got %d", limit)
		}
		s.maxQueryLength = limit
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repo storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repo:           repo,
		embedder:       embedder,
		maxQueryLength: DefaultMaxQueryLength,
		logger:         slog.Default().With("component", "searcher"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search returns up to topK chunks of hash ranked by similarity to query.
func (s *Searcher) Search(ctx context.Context, query string, hash core.ContentHash, topK int) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, hash, topK, nil)
}

// SearchWithMonitor is Search with callbacks at each step.
//
// A document with no chunks yields an empty result. Repository and
// embedding failures wrap core.ErrSearch.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, hash core.ContentHash, topK int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopK, topK)
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query, hash)

	chunks, err := s.repo.GetChunks(ctx, hash)
	if err != nil {
		s.logger.Error("error reading chunks", "hash", hash, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrSearch, err)
	}
	monitor.AfterChunkRetrieval(len(chunks))
	if len(chunks) == 0 {
		monitor.Finish(nil)
		return []core.SearchResult{}, nil
	}

	bounded, truncated := Truncate(query, s.maxQueryLength)
	if truncated {
		s.logger.Debug("query truncated", "limit", s.maxQueryLength)
	}
	embedding, err := s.embedder.EmbedText(ctx, bounded)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrSearch, err)
	}
	monitor.AfterQueryEmbedding(truncated, len(embedding))

	results := make([]core.SearchResult, len(chunks))
	for i, chunk := range chunks {
		results[i] = core.SearchResult{
			Hash:    chunk.Hash,
			Ordinal: chunk.Ordinal,
			Text:    chunk.Text,
			Score:   CosineSimilarity(embedding, chunk.Embedding),
		}
	}

	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	if len(results) > topK {
		results = results[:topK]
	}

	for _, r := range results {
		monitor.Hit(r, matchedTerms(r.Text, bounded))
	}
	monitor.Finish(results)
	return results, nil
}

// Context concatenates the text of results, separated by blank lines.
func Context(results []core.SearchResult) string {
	var size int
	for _, r := range results {
		size += len(r.Text) + 2
	}
	buf := make([]byte, 0, size)
	for i, r := range results {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, r.Text...)
	}
	return string(buf)
}
