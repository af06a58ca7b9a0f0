package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
)

// ChunkRepository stores documents and chunks in SQLite. The documents
// primary key enforces one chunk set per hash.
type ChunkRepository struct {
	db *DB
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a ChunkRepository on db.
func NewChunkRepository(db *DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// Close is a no-op; the DB owns the connection.
func (r *ChunkRepository) Close() error {
	return nil
}

// GetEntry returns the entry stored for hash.
func (r *ChunkRepository) GetEntry(ctx context.Context, hash core.ContentHash) (*core.DocumentEntry, error) {
	row := r.db.sqlDB.QueryRowContext(ctx,
		"SELECT hash, doc_type, chunk_count, created_at FROM documents WHERE hash = ?", string(hash))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return entry, nil
}

// PutIfAbsent inserts entry and chunks in one transaction. When the hash is
// already present nothing is written and the stored entry is returned.
func (r *ChunkRepository) PutIfAbsent(ctx context.Context, entry *core.DocumentEntry, chunks []*core.Chunk) (*core.DocumentEntry, bool, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, false, err
		}
	}

	tx, err := r.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO documents (hash, doc_type, chunk_count, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(hash) DO NOTHING",
		string(entry.Hash), string(entry.DocType), entry.ChunkCount, formatTime(entry.CreatedAt))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	if affected == 0 {
		tx.Rollback()
		existing, err := r.GetEntry(ctx, entry.Hash)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chunks (hash, ordinal, data) VALUES (?, ?, ?)")
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	defer stmt.Close()
	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, string(entry.Hash), chunk.Ordinal, storage.MarshalChunk(chunk)); err != nil {
			return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return entry, true, nil
}

// GetChunks returns the chunks of hash in ordinal order.
func (r *ChunkRepository) GetChunks(ctx context.Context, hash core.ContentHash) ([]*core.Chunk, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx,
		"SELECT data FROM chunks WHERE hash = ? ORDER BY ordinal", string(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	defer rows.Close()

	chunks := []*core.Chunk{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}
		chunk, err := storage.UnmarshalChunk(data)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return chunks, nil
}

// ListEntries returns every stored entry.
func (r *ChunkRepository) ListEntries(ctx context.Context) ([]*core.DocumentEntry, error) {
	rows, err := r.db.sqlDB.QueryContext(ctx,
		"SELECT hash, doc_type, chunk_count, created_at FROM documents ORDER BY hash")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	defer rows.Close()

	var entries []*core.DocumentEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*core.DocumentEntry, error) {
	var (
		entry     core.DocumentEntry
		hash      string
		docType   string
		createdAt string
	)
	if err := s.Scan(&hash, &docType, &entry.ChunkCount, &createdAt); err != nil {
		return nil, err
	}
	ts, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	entry.Hash = core.ContentHash(hash)
	entry.DocType = core.SourceType(docType)
	entry.CreatedAt = ts
	return &entry, nil
}
