package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
)

// ChunkRepository stores document entries and their chunks in Badger.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &ChunkRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "chunks"),
	}, nil
}

// Close is a no-op; the Backend owns the database.
func (r *ChunkRepository) Close() error {
	return nil
}

// GetEntry retrieves the entry stored for hash.
func (r *ChunkRepository) GetEntry(ctx context.Context, hash core.ContentHash) (*core.DocumentEntry, error) {
	var entry *core.DocumentEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entry, err = readEntry(tx, hash)
		return err
	}, false)
	if err != nil {
		return nil, translate(err)
	}
	return entry, nil
}

// PutIfAbsent writes entry and chunks in one transaction unless the entry key
// already exists. Badger's conflict detection on the entry key decides the
// winner between concurrent writers; the loser re-reads the winner's entry.
func (r *ChunkRepository) PutIfAbsent(ctx context.Context, entry *core.DocumentEntry, chunks []*core.Chunk) (*core.DocumentEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, false, err
		}
	}

	var existing *core.DocumentEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := readEntry(tx, entry.Hash)
		if err == nil {
			existing = found
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		for _, chunk := range chunks {
			if err := tx.Set(makeChunkKey(entry.Hash, chunk.Ordinal), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeEntryKey(entry.Hash), storage.MarshalDocumentEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if errors.Is(err, badger.ErrConflict) {
		r.logger.Debug("concurrent insert detected, reading winner", "hash", entry.Hash)
		winner, getErr := r.GetEntry(ctx, entry.Hash)
		if getErr != nil {
			return nil, false, getErr
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, translate(err)
	}
	if existing != nil {
		return existing, false, nil
	}
	return entry, true, nil
}

// GetChunks returns the chunks of hash in ordinal order.
func (r *ChunkRepository) GetChunks(ctx context.Context, hash core.ContentHash) ([]*core.Chunk, error) {
	chunks := []*core.Chunk{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(hash)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}, false)
	if err != nil {
		return nil, translate(err)
	}
	return chunks, nil
}

// ListEntries returns every document entry.
func (r *ChunkRepository) ListEntries(ctx context.Context) ([]*core.DocumentEntry, error) {
	var entries []*core.DocumentEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(documentEntryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			item := iter.Item()
			if !hasPrefix(item.Key(), prefix) {
				break
			}
			var entry *core.DocumentEntry
			err := item.Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalDocumentEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

// readEntry reads an entry within tx. Missing keys return badger.ErrKeyNotFound.
func readEntry(tx *badger.Txn, hash core.ContentHash) (*core.DocumentEntry, error) {
	item, err := tx.Get(makeEntryKey(hash))
	if err != nil {
		return nil, err
	}
	var entry *core.DocumentEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalDocumentEntry(val)
		return err
	})
	return entry, err
}
