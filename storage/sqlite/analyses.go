package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
)

// AnalysisRepository stores analysis records as JSON rows.
type AnalysisRepository struct {
	db *DB
}

var _ storage.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates an AnalysisRepository on db.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Close is a no-op; the DB owns the connection.
func (r *AnalysisRepository) Close() error {
	return nil
}

// SaveAnalysis inserts record. An existing id yields storage.ErrDuplicateKey.
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	data, err := storage.MarshalAnalysis(record)
	if err != nil {
		return err
	}
	res, err := r.db.sqlDB.ExecContext(ctx,
		"INSERT INTO analyses (id, created_at, status, overall_score, record) VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING",
		record.ID, formatTime(record.CreatedAt), record.Status, record.CompatibilityScore.Overall, string(data))
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	if affected == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// GetAnalysis returns the record with id.
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	var data string
	err := r.db.sqlDB.QueryRowContext(ctx, "SELECT record FROM analyses WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return storage.UnmarshalAnalysis([]byte(data))
}

// ListAnalyses returns up to limit records, newest first.
func (r *AnalysisRepository) ListAnalyses(ctx context.Context, limit int) ([]*core.AnalysisRecord, error) {
	query := "SELECT record FROM analyses ORDER BY created_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	defer rows.Close()

	var records []*core.AnalysisRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
		}
		record, err := storage.UnmarshalAnalysis([]byte(data))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
