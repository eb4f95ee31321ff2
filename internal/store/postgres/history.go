package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"FinTrack/internal/bankimport"
)

// ImportHistoryStore records import attempts.
type ImportHistoryStore struct {
	store *Store
}

// FindByFileHash returns the user's import record for that file hash, or nil.
func (h *ImportHistoryStore) FindByFileHash(ctx context.Context, userID, fileHash string) (*bankimport.ImportHistory, error) {
	var record bankimport.ImportHistory
	err := h.store.db(ctx).QueryRow(ctx, `
		SELECT id, user_id, account_id, file_name, file_hash,
		       total_rows, imported_count, duplicate_count, error_count,
		       status, COALESCE(error_details::text, ''), created_at
		FROM import_history
		WHERE user_id = $1 AND file_hash = $2
	`, userID, fileHash).Scan(
		&record.ID, &record.UserID, &record.AccountID, &record.FileName, &record.FileHash,
		&record.TotalRows, &record.ImportedCount, &record.DuplicateCount, &record.ErrorCount,
		&record.Status, &record.ErrorDetails, &record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying import history by file hash: %w", err)
	}
	return &record, nil
}

// Create inserts the record and returns its id. The unique index on
// (user_id, file_hash) backs the idempotency guarantee.
func (h *ImportHistoryStore) Create(ctx context.Context, record *bankimport.ImportHistory) (int64, error) {
	var id int64
	err := h.store.db(ctx).QueryRow(ctx, `
		INSERT INTO import_history (
			user_id, account_id, file_name, file_hash,
			total_rows, imported_count, duplicate_count, error_count, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, record.UserID, record.AccountID, record.FileName, record.FileHash,
		record.TotalRows, record.ImportedCount, record.DuplicateCount,
		record.ErrorCount, string(record.Status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import history: %w", err)
	}
	return id, nil
}

// PatchImportedCount updates imported_count once all batches have landed.
func (h *ImportHistoryStore) PatchImportedCount(ctx context.Context, id int64, importedCount int) error {
	_, err := h.store.db(ctx).Exec(ctx, `
		UPDATE import_history SET imported_count = $1 WHERE id = $2
	`, importedCount, id)
	if err != nil {
		return fmt.Errorf("updating import history %d: %w", id, err)
	}
	return nil
}
