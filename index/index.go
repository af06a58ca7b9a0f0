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

package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/chunker"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/extract"
	"github.com/poiesic/careerfit/storage"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBatchSize = 16

	// buildTimeout bounds a shared build once it is detached from the
	// caller that started it.
	buildTimeout = 10 * time.Minute
)

// DocumentIndex chunks, embeds, and stores documents by content hash.
type DocumentIndex struct {
	repo      storage.ChunkRepository
	embedder  ai.Embedder
	reader    extract.Reader
	chunker   *chunker.Chunker
	pool      *ants.Pool
	batchSize int
	inflight  singleflight.Group
	logger    *slog.Logger
}

// Option configures a DocumentIndex.
type Option func(*DocumentIndex) error

// WithPoolSize sets the number of concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *DocumentIndex) error {
		if size < 1 {
			size = 1
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		ix.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are sent per embedding request.
func WithBatchSize(size int) Option {
	return func(ix *DocumentIndex) error {
		if size < 1 {
			size = 1
		}
		ix.batchSize = size
		return nil
	}
}

// WithChunking sets the window size and overlap in words.
func WithChunking(size, overlap int) Option {
	return func(ix *DocumentIndex) error {
		c, err := chunker.New(chunker.WithSize(size), chunker.WithOverlap(overlap))
		if err != nil {
			return err
		}
		ix.chunker = c
		return nil
	}
}

// WithReader sets the file reader used by IndexFile.
func WithReader(reader extract.Reader) Option {
	return func(ix *DocumentIndex) error {
		if reader != nil {
			ix.reader = reader
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *DocumentIndex) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger.With("component", "document-index")
		return nil
	}
}

// New creates a DocumentIndex over repo using embedder for chunk vectors.
func New(repo storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*DocumentIndex, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c, err := chunker.New()
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ix := &DocumentIndex{
		repo:      repo,
		embedder:  embedder,
		reader:    extract.New(),
		chunker:   c,
		pool:      pool,
		batchSize: defaultBatchSize,
		logger:    slog.Default().With("component", "document-index"),
	}

	for _, opt := range opts {
		if optErr := opt(ix); optErr != nil {
			ix.Release()
			return nil, optErr
		}
	}

	return ix, nil
}

// Index stores content and returns its hash. Content already indexed under
// any source type returns immediately. Embedding failures wrap
// core.ErrEmbedding and storage failures wrap core.ErrIndexWrite; in both
// cases nothing is stored for the hash.
func (ix *DocumentIndex) Index(ctx context.Context, content string, sourceType core.SourceType) (core.ContentHash, error) {
	hash := core.HashContent(content)

	if _, err := ix.repo.GetEntry(ctx, hash); err == nil {
		ix.logger.Debug("document already indexed", "hash", hash)
		return hash, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: %w", core.ErrIndexWrite, err)
	}

	// Concurrent callers for the same hash in this process share one build.
	// The build runs detached from any one caller's cancellation; each
	// caller stops waiting when its own context ends.
	results := ix.inflight.DoChan(string(hash), func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		return nil, ix.build(buildCtx, hash, content, sourceType)
	})

	select {
	case <-ctx.Done():
		ix.logger.Debug("stopped waiting for indexing", "hash", hash, "err", ctx.Err())
		return "", ctx.Err()
	case res := <-results:
		if res.Shared {
			ix.logger.Debug("joined in-flight indexing", "hash", hash)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return hash, nil
	}
}

func (ix *DocumentIndex) build(ctx context.Context, hash core.ContentHash, content string, sourceType core.SourceType) error {
	if _, err := ix.repo.GetEntry(ctx, hash); err == nil {
		return nil
	}

	texts := ix.chunker.Chunk(content)
	vectors, err := ix.embed(ctx, texts)
	if err != nil {
		ix.logger.Error("failed to embed chunks", "hash", hash, "chunks", len(texts), "err", err)
		return err
	}

	now := time.Now().UTC()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			Hash:      hash,
			Ordinal:   i,
			Text:      text,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}
	entry := &core.DocumentEntry{
		Hash:       hash,
		DocType:    sourceType,
		ChunkCount: len(chunks),
		CreatedAt:  now,
	}

	stored, created, err := ix.repo.PutIfAbsent(ctx, entry, chunks)
	if err != nil {
		ix.logger.Error("failed to store chunks", "hash", hash, "err", err)
		return fmt.Errorf("%w: %w", core.ErrIndexWrite, err)
	}
	if created {
		ix.logger.Info("indexed document", "hash", hash, "type", sourceType, "chunks", len(chunks))
	} else {
		ix.logger.Debug("document indexed concurrently", "hash", hash, "type", stored.DocType)
	}
	return nil
}

// embed computes vectors for texts in batches on the worker pool, keeping
// input order.
func (ix *DocumentIndex) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += ix.batchSize {
		end := min(start+ix.batchSize, len(texts))
		wg.Add(1)
		submitErr := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			batch, err := ix.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				fail(err)
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("embedding result mismatch. expected %d, received %d", end-start, len(batch)))
				return
			}
			for i, v := range batch {
				if len(v) == 0 {
					fail(fmt.Errorf("empty vector for chunk %d", start+i))
					return
				}
			}
			copy(vectors[start:end], batch)
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		if errors.Is(firstErr, core.ErrEmbedding) {
			return nil, firstErr
		}
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, firstErr)
	}
	return vectors, nil
}

// IndexFile extracts the text of path and indexes it.
func (ix *DocumentIndex) IndexFile(ctx context.Context, path string, sourceType core.SourceType) (core.ContentHash, error) {
	text, err := ix.reader.ReadText(path)
	if err != nil {
		if !errors.Is(err, core.ErrExtraction) {
			err = fmt.Errorf("%w: %w", core.ErrExtraction, err)
		}
		return "", err
	}
	return ix.Index(ctx, text, sourceType)
}

// CanRead reports whether IndexFile supports path.
func (ix *DocumentIndex) CanRead(path string) bool {
	return ix.reader.CanRead(path)
}

// Entry returns the stored entry for hash, or storage.ErrNotFound.
func (ix *DocumentIndex) Entry(ctx context.Context, hash core.ContentHash) (*core.DocumentEntry, error) {
	return ix.repo.GetEntry(ctx, hash)
}

// Entries lists every indexed document.
func (ix *DocumentIndex) Entries(ctx context.Context) ([]*core.DocumentEntry, error) {
	return ix.repo.ListEntries(ctx)
}

// Release releases the worker pool. The index should not be used afterwards.
func (ix *DocumentIndex) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}
