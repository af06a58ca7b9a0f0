package storage

import (
	"context"

	"github.com/poiesic/careerfit/core"
)

// ChunkRepository stores the chunk set of each indexed document.
// Implementations must be thread-safe.
type ChunkRepository interface {
	// GetEntry returns the entry for hash or ErrNotFound.
	GetEntry(ctx context.Context, hash core.ContentHash) (*core.DocumentEntry, error)

	// PutIfAbsent atomically stores entry and its chunks unless an entry for
	// the same hash already exists. It returns the stored entry and whether
	// this call created it. Either every chunk becomes visible or none does.
	PutIfAbsent(ctx context.Context, entry *core.DocumentEntry, chunks []*core.Chunk) (*core.DocumentEntry, bool, error)

	// GetChunks returns the chunks stored for hash ordered by ordinal.
	// Unknown hashes yield an empty slice.
	GetChunks(ctx context.Context, hash core.ContentHash) ([]*core.Chunk, error)

	// ListEntries returns every stored entry.
	ListEntries(ctx context.Context) ([]*core.DocumentEntry, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// AnalysisRepository stores completed analysis records.
// Records are never updated once saved.
type AnalysisRepository interface {
	// SaveAnalysis persists record under record.ID. Saving an id that already
	// exists returns ErrDuplicateKey.
	SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error

	// GetAnalysis returns the record with id or ErrNotFound.
	GetAnalysis(ctx context.Context, id string) (*core.AnalysisRecord, error)

	// ListAnalyses returns up to limit records, newest first. A limit of zero
	// or less returns every record.
	ListAnalyses(ctx context.Context, limit int) ([]*core.AnalysisRecord, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
