package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"FinTrack/internal/bankimport"
)

// AccountStore loads bank account configurations.
type AccountStore struct {
	store *Store
}

// GetAccount fetches the account by (id, user). The stored csv_config JSON
// must deserialize to a valid CsvLayout before an import can run.
func (a *AccountStore) GetAccount(ctx context.Context, accountID int64, userID string) (*bankimport.BankAccount, error) {
	var (
		account   bankimport.BankAccount
		csvConfig []byte
	)
	err := a.store.db(ctx).QueryRow(ctx, `
		SELECT id, user_id, bank_name, account_name, account_number_last4,
		       account_type, csv_config, is_active, created_at, updated_at
		FROM bank_accounts
		WHERE id = $1 AND user_id = $2
	`, accountID, userID).Scan(
		&account.ID, &account.UserID, &account.BankName, &account.AccountName,
		&account.AccountNumberLast4, &account.AccountType, &csvConfig,
		&account.IsActive, &account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, bankimport.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying bank account %d: %w", accountID, err)
	}

	if err := json.Unmarshal(csvConfig, &account.CsvConfig); err != nil {
		return nil, fmt.Errorf("bank account %d has invalid csv_config: %w", accountID, err)
	}
	return &account, nil
}
