package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
)

// AnalysisRepository stores analysis records in Badger, with a secondary
// creation-time index for listing.
type AnalysisRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(backend *Backend) (*AnalysisRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &AnalysisRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "analyses"),
	}, nil
}

// Close is a no-op; the Backend owns the database.
func (r *AnalysisRepository) Close() error {
	return nil
}

// SaveAnalysis stores record. Existing ids are never overwritten.
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := storage.MarshalAnalysis(record)
	if err != nil {
		return err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeAnalysisKey(record.ID)
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeAnalysisDateKey(record.CreatedAt, record.ID), []byte(record.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return storage.ErrDuplicateKey
	}
	return translate(err)
}

// GetAnalysis retrieves the record with id.
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	var record *core.AnalysisRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = readAnalysis(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, translate(err)
	}
	return record, nil
}

// ListAnalyses walks the creation-time index newest first.
func (r *AnalysisRepository) ListAnalyses(ctx context.Context, limit int) ([]*core.AnalysisRecord, error) {
	var records []*core.AnalysisRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(analysisDatePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := readAnalysis(tx, string(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					r.logger.Warn("dangling analysis index entry", "id", string(id))
					continue
				}
				return err
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, translate(err)
	}
	return records, nil
}

func readAnalysis(tx *badger.Txn, id string) (*core.AnalysisRecord, error) {
	item, err := tx.Get(makeAnalysisKey(id))
	if err != nil {
		return nil, err
	}
	var record *core.AnalysisRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalAnalysis(val)
		return err
	})
	return record, err
}
