package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "careerfit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "careerfit.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestChunkRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	hash := core.HashContent("five years of Go")
	entry := &core.DocumentEntry{Hash: hash, DocType: core.SourceResume, ChunkCount: 2, CreatedAt: now}
	chunks := []*core.Chunk{
		{Hash: hash, Ordinal: 1, Text: "of Go", Embedding: []float32{0, 1}, CreatedAt: now.Truncate(time.Microsecond)},
		{Hash: hash, Ordinal: 0, Text: "five years", Embedding: []float32{1, 0}, CreatedAt: now.Truncate(time.Microsecond)},
	}

	t.Run("insert if absent", func(t *testing.T) {
		repo := NewChunkRepository(openTestDB(t))

		_, created, err := repo.PutIfAbsent(ctx, entry, chunks)
		require.NoError(t, err)
		assert.True(t, created)

		stored, created, err := repo.PutIfAbsent(ctx, &core.DocumentEntry{Hash: hash, DocType: core.SourceCompany, CreatedAt: now}, nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, core.SourceResume, stored.DocType)
		assert.True(t, now.Equal(stored.CreatedAt))

		got, err := repo.GetChunks(ctx, hash)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "five years", got[0].Text)
		assert.Equal(t, "of Go", got[1].Text)
	})

	t.Run("concurrent inserts have one winner", func(t *testing.T) {
		repo := NewChunkRepository(openTestDB(t))
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := repo.PutIfAbsent(ctx, entry, chunks)
				assert.NoError(t, err)
				if created {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, winners)
	})

	t.Run("invalid chunk is rejected", func(t *testing.T) {
		repo := NewChunkRepository(openTestDB(t))
		bad := []*core.Chunk{
			{Hash: hash, Ordinal: 0, Text: "five years", Embedding: []float32{1, 0}, CreatedAt: now},
			{Hash: hash, Ordinal: 1, Text: "of Go", CreatedAt: now},
		}

		_, created, err := repo.PutIfAbsent(ctx, entry, bad)
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
		assert.False(t, created)

		_, err = repo.GetEntry(ctx, hash)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("missing entries", func(t *testing.T) {
		repo := NewChunkRepository(openTestDB(t))
		_, err := repo.GetEntry(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		got, err := repo.GetChunks(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, got)

		entries, err := repo.ListEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestAnalysisRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	repo := NewAnalysisRepository(openTestDB(t))

	ids := []string{"first", "second", "third"}
	for i, id := range ids {
		record := &core.AnalysisRecord{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
			Status:    core.StatusCompleted,
		}
		record.CompatibilityScore.Overall = 50 + i
		require.NoError(t, repo.SaveAnalysis(ctx, record))
	}

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetAnalysis(ctx, "second")
		require.NoError(t, err)
		assert.Equal(t, 51, got.CompatibilityScore.Overall)

		_, err = repo.GetAnalysis(ctx, "unknown")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := repo.SaveAnalysis(ctx, &core.AnalysisRecord{ID: "first", CreatedAt: base})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := repo.ListAnalyses(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "third", all[0].ID)
		assert.Equal(t, "second", all[1].ID)

		one, err := repo.ListAnalyses(ctx, 1)
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, "third", one[0].ID)
	})
}
