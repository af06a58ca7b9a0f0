package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/careerfit/ai/mock"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
	"github.com/poiesic/careerfit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func newTestIndex(t *testing.T, opts ...Option) (*DocumentIndex, storage.ChunkRepository, *mock.MockEmbedder) {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	ix, err := New(repo, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(ix.Release)
	return ix, repo, embedder
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	_, err = New(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = New(repo, mock.NewMockEmbedder(), WithChunking(10, 10))
	assert.ErrorIs(t, err, core.ErrInvalidChunkConfig)
}

func TestIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("chunks and stores a new document", func(t *testing.T) {
		ix, repo, embedder := newTestIndex(t)
		text := words(1200)

		hash, err := ix.Index(ctx, text, core.SourceResume)
		require.NoError(t, err)
		assert.Equal(t, core.HashContent(text), hash)

		entry, err := ix.Entry(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, 3, entry.ChunkCount)
		assert.Equal(t, core.SourceResume, entry.DocType)

		chunks, err := repo.GetChunks(ctx, hash)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Len(t, strings.Fields(chunks[2].Text), 300)
		assert.Equal(t, mock.Vector(chunks[1].Text), chunks[1].Embedding)
		assert.Equal(t, 3, embedder.TextsEmbedded())
	})

	t.Run("reindexing is a no-op", func(t *testing.T) {
		ix, repo, embedder := newTestIndex(t)
		text := words(700)

		first, err := ix.Index(ctx, text, core.SourceResume)
		require.NoError(t, err)
		embedded := embedder.TextsEmbedded()

		second, err := ix.Index(ctx, "  "+strings.ReplaceAll(text, " ", "\n")+"\n", core.SourceCompany)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, embedded, embedder.TextsEmbedded())
		entries, err := repo.ListEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, core.SourceResume, entries[0].DocType)
	})

	t.Run("concurrent indexing embeds once", func(t *testing.T) {
		ix, _, embedder := newTestIndex(t)
		text := words(950)

		var wg sync.WaitGroup
		hashes := make([]core.ContentHash, 10)
		for i := range hashes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h, err := ix.Index(ctx, text, core.SourceResume)
				assert.NoError(t, err)
				hashes[i] = h
			}()
		}
		wg.Wait()

		for _, h := range hashes {
			assert.Equal(t, core.HashContent(text), h)
		}
		assert.Equal(t, 3, embedder.TextsEmbedded())
	})

	t.Run("batches embedding requests", func(t *testing.T) {
		ix, _, embedder := newTestIndex(t, WithChunking(10, 0), WithBatchSize(2), WithPoolSize(3))

		_, err := ix.Index(ctx, words(50), core.SourceCompany)
		require.NoError(t, err)
		assert.Equal(t, 3, embedder.CallCount())
		assert.Equal(t, 5, embedder.TextsEmbedded())
	})

	t.Run("embedding failure stores nothing", func(t *testing.T) {
		ix, repo, embedder := newTestIndex(t)
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("model offline")
		}
		text := words(20)

		_, err := ix.Index(ctx, text, core.SourceResume)
		assert.ErrorIs(t, err, core.ErrEmbedding)

		_, err = repo.GetEntry(ctx, core.HashContent(text))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("short vector batch is an embedding error", func(t *testing.T) {
		ix, _, embedder := newTestIndex(t)
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		_, err := ix.Index(ctx, words(20), core.SourceResume)
		assert.ErrorIs(t, err, core.ErrEmbedding)
	})

	t.Run("storage failure is an index write error", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		ix, err := New(failingRepo{}, embedder)
		require.NoError(t, err)
		defer ix.Release()

		_, err = ix.Index(ctx, words(5), core.SourceResume)
		assert.ErrorIs(t, err, core.ErrIndexWrite)
	})

	t.Run("cancelled caller does not fail a shared build", func(t *testing.T) {
		ix, repo, embedder := newTestIndex(t)
		text := words(20)

		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			once.Do(func() { close(started) })
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			vectors := make([][]float32, len(texts))
			for i, chunk := range texts {
				vectors[i] = mock.Vector(chunk)
			}
			return vectors, nil
		}

		firstCtx, cancelFirst := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := ix.Index(firstCtx, text, core.SourceResume)
			firstErr <- err
		}()
		<-started

		type result struct {
			hash core.ContentHash
			err  error
		}
		second := make(chan result, 1)
		go func() {
			h, err := ix.Index(ctx, text, core.SourceResume)
			second <- result{h, err}
		}()

		cancelFirst()
		assert.ErrorIs(t, <-firstErr, context.Canceled)

		close(release)
		got := <-second
		require.NoError(t, got.err)
		assert.Equal(t, core.HashContent(text), got.hash)

		entry, err := repo.GetEntry(ctx, got.hash)
		require.NoError(t, err)
		assert.Equal(t, 1, entry.ChunkCount)
		assert.Equal(t, 1, embedder.CallCount())
	})

	t.Run("empty document has no chunks", func(t *testing.T) {
		ix, repo, _ := newTestIndex(t)
		hash, err := ix.Index(ctx, "   ", core.SourceWeb)
		require.NoError(t, err)

		chunks, err := repo.GetChunks(ctx, hash)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestIndexFile(t *testing.T) {
	ctx := context.Background()
	ix, _, _ := newTestIndex(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Go developer with SQL"), 0o644))

	hash, err := ix.IndexFile(ctx, path, core.SourceResume)
	require.NoError(t, err)
	assert.Equal(t, core.HashContent("Go developer with SQL"), hash)

	_, err = ix.IndexFile(ctx, filepath.Join(dir, "missing.txt"), core.SourceResume)
	assert.ErrorIs(t, err, core.ErrExtraction)

	_, err = ix.IndexFile(ctx, filepath.Join(dir, "photo.png"), core.SourceResume)
	assert.ErrorIs(t, err, core.ErrExtraction)
}

type failingRepo struct{}

func (failingRepo) GetEntry(ctx context.Context, hash core.ContentHash) (*core.DocumentEntry, error) {
	return nil, storage.ErrNotFound
}

func (failingRepo) PutIfAbsent(ctx context.Context, entry *core.DocumentEntry, chunks []*core.Chunk) (*core.DocumentEntry, bool, error) {
	return nil, false, storage.ErrTransactionFailed
}

func (failingRepo) GetChunks(ctx context.Context, hash core.ContentHash) ([]*core.Chunk, error) {
	return nil, storage.ErrTransactionFailed
}

func (failingRepo) ListEntries(ctx context.Context) ([]*core.DocumentEntry, error) {
	return nil, nil
}

func (failingRepo) Close() error { return nil }
