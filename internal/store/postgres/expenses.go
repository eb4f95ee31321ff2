package postgres

import (
	"context"
	"fmt"
	"strings"

	"FinTrack/internal/bankimport"
)

// ExpenseStore persists and queries expenses.
type ExpenseStore struct {
	store *Store
}

// FindExistingHashes returns which of the given transaction hashes already
// exist among the user's expenses, in one batched lookup.
func (e *ExpenseStore) FindExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(hashes) == 0 {
		return existing, nil
	}

	rows, err := e.store.db(ctx).Query(ctx, `
		SELECT transaction_hash FROM expenses
		WHERE user_id = $1 AND transaction_hash = ANY($2)
	`, userID, hashes)
	if err != nil {
		return nil, fmt.Errorf("querying existing transaction hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		existing[hash] = struct{}{}
	}
	return existing, rows.Err()
}

// InsertBatch writes one batch of expenses with a single multi-row INSERT.
// Runs inside the caller's transaction when invoked from RunInTx.
func (e *ExpenseStore) InsertBatch(ctx context.Context, expenses []bankimport.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	const cols = 12
	valueStrings := make([]string, 0, len(expenses))
	valueArgs := make([]any, 0, len(expenses)*cols)
	for i, exp := range expenses {
		base := i * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs,
			exp.ID, exp.UserID, exp.Name, exp.Description, exp.RawDescription,
			exp.Amount, exp.CategoryID, exp.Date, exp.IsApproved, string(exp.Source),
			exp.ImportID, exp.TransactionHash,
		)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO expenses (
			id, user_id, name, description, raw_description,
			amount, category_id, date, is_approved, source,
			import_id, transaction_hash
		) VALUES %s
	`, strings.Join(valueStrings, ", "))

	if _, err := e.store.db(ctx).Exec(ctx, stmt, valueArgs...); err != nil {
		return fmt.Errorf("inserting %d expenses: %w", len(expenses), err)
	}
	return nil
}
