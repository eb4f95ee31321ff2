package bankimport

import (
	"context"
	"errors"
)

// Errors returned by stores and mapped into import reports.
var (
	ErrAccountNotFound  = errors.New("bank account not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// AccountStore loads bank account configurations.
type AccountStore interface {
	// GetAccount returns the account owned by userID, or ErrAccountNotFound.
	GetAccount(ctx context.Context, accountID int64, userID string) (*BankAccount, error)
}

// ExpenseStore persists and queries expenses.
type ExpenseStore interface {
	// FindExistingHashes returns which of the given transaction hashes already
	// exist among the user's stored expenses, in one batched lookup.
	FindExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error)
	// InsertBatch writes expenses inside the caller's transaction scope.
	InsertBatch(ctx context.Context, expenses []Expense) error
}

// ImportHistoryStore records import attempts. file_hash is unique per user.
type ImportHistoryStore interface {
	// FindByFileHash returns the matching record, or nil when none exists.
	FindByFileHash(ctx context.Context, userID, fileHash string) (*ImportHistory, error)
	// Create inserts the record and returns its id.
	Create(ctx context.Context, record *ImportHistory) (int64, error)
	// PatchImportedCount updates imported_count after the batch insert.
	PatchImportedCount(ctx context.Context, id int64, importedCount int) error
}

// RuleStore reads categorization rules and records their hits.
type RuleStore interface {
	// ListActiveRules returns the user's active rules with their categories,
	// ordered by priority descending then rule id ascending.
	ListActiveRules(ctx context.Context, userID string) ([]CategoryRule, error)
	// IncrementMatchCount bumps a rule's match counter. Callers treat this as
	// fire-and-forget; failures must never affect categorization.
	IncrementMatchCount(ctx context.Context, ruleID int64) error
}

// CategoryStore resolves and creates categories.
type CategoryStore interface {
	// FindByName returns the category, or nil when none exists.
	FindByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, category *Category) (*Category, error)
}

// TxRunner scopes a function inside one atomic transaction. The
// implementation begins a transaction, rolls back when fn returns an error or
// panics, commits otherwise, and always releases the underlying connection.
// Store calls made with the ctx passed to fn run inside that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
