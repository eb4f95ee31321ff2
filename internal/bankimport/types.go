package bankimport

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType identifies the kind of bank account a statement comes from.
type AccountType string

const (
	AccountTypeSaving     AccountType = "SAVING"
	AccountTypeCurrent    AccountType = "CURRENT"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeOther      AccountType = "OTHER"
)

// TxnType is the optional debit/credit tag derived from a mapped type column.
type TxnType string

const (
	TxnDebit  TxnType = "DEBIT"
	TxnCredit TxnType = "CREDIT"
)

// ColumnMapping maps logical transaction fields to zero-based CSV column indexes.
type ColumnMapping struct {
	Date        int  `json:"date"`
	Description int  `json:"description"`
	Amount      int  `json:"amount"`
	Type        *int `json:"type,omitempty"`
}

// AmountFormat describes how a bank encodes signed amounts.
type AmountFormat struct {
	NegativePattern string `json:"negative_pattern"`           // "-" or "()"
	CreditIndicator string `json:"credit_indicator,omitempty"` // e.g. "CR"
}

// ColumnFilter keeps or drops rows by case-insensitive substring match on one column.
type ColumnFilter struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// CsvLayout is the per-account statement format configuration.
// It is stored as JSON on the bank account and is immutable for one import run.
type CsvLayout struct {
	Delimiter    string                  `json:"delimiter"`
	SkipRows     int                     `json:"skip_rows"`
	Columns      ColumnMapping           `json:"columns"`
	DateFormat   string                  `json:"date_format"` // e.g. "DD/MM/YYYY"
	AmountFormat *AmountFormat           `json:"amount_format,omitempty"`
	Filters      map[string]ColumnFilter `json:"filters,omitempty"` // keyed by logical column name
}

// BankAccount identifies one statement source for one user.
type BankAccount struct {
	ID                 int64       `json:"id"`
	UserID             string      `json:"user_id"`
	BankName           string      `json:"bank_name"`
	AccountName        string      `json:"account_name"`
	AccountNumberLast4 string      `json:"account_number_last4"`
	AccountType        AccountType `json:"account_type"`
	CsvConfig          CsvLayout   `json:"csv_config"`
	IsActive           bool        `json:"is_active"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ParsedTransaction is one statement row after parsing. It only lives inside a
// single import run and is never persisted directly.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Amount      *decimal.Decimal // negative = expense after sign normalization
	Type        TxnType          // empty when the layout maps no type column
	RawRow      []string         // original fields, for diagnostics
}

// Category is a spending category. Names are globally unique.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryRule matches transaction descriptions to a category by
// case-insensitive substring. Higher priority rules are checked first.
type CategoryRule struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Pattern    string    `json:"pattern"`
	CategoryID int64     `json:"category_id"`
	Category   Category  `json:"category"`
	Priority   int       `json:"priority"`
	IsActive   bool      `json:"is_active"`
	MatchCount int64     `json:"match_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ImportStatus is the final state of an import attempt.
type ImportStatus string

const (
	ImportStatusSuccess ImportStatus = "SUCCESS"
	ImportStatusPartial ImportStatus = "PARTIAL"
	ImportStatusFailed  ImportStatus = "FAILED"
)

// ImportHistory records one import attempt. file_hash is unique per user.
type ImportHistory struct {
	ID             int64        `json:"id"`
	UserID         string       `json:"user_id"`
	AccountID      int64        `json:"account_id"`
	FileName       string       `json:"file_name"`
	FileHash       string       `json:"file_hash"`
	TotalRows      int          `json:"total_rows"`
	ImportedCount  int          `json:"imported_count"`
	DuplicateCount int          `json:"duplicate_count"`
	ErrorCount     int          `json:"error_count"`
	Status         ImportStatus `json:"status"`
	ErrorDetails   string       `json:"error_details,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ExpenseSource records how an expense entered the system.
type ExpenseSource string

const (
	SourceImport ExpenseSource = "IMPORT"
	SourceManual ExpenseSource = "MANUAL"
)

// Expense is a persisted transaction. Imported expenses carry the
// deduplication hash and a back-reference to the import that produced them.
type Expense struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Name            string          `json:"name"` // truncated description
	Description     string          `json:"description"`
	RawDescription  string          `json:"raw_description"`
	Amount          decimal.Decimal `json:"amount"` // stored as positive
	CategoryID      int64           `json:"category_id"`
	Date            time.Time       `json:"date"`
	IsApproved      bool            `json:"is_approved"`
	Source          ExpenseSource   `json:"source"`
	ImportID        *int64          `json:"import_id,omitempty"`
	TransactionHash string          `json:"transaction_hash"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ValidationResult is the outcome of validating a parsed batch.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	InvalidIndexes []int    `json:"invalid_indexes"`
}

// ImportReport is what every import run returns, success or not.
type ImportReport struct {
	Success        bool     `json:"success"`
	TotalRows      int      `json:"total_rows"`
	ImportedCount  int      `json:"imported_count"`
	DuplicateCount int      `json:"duplicate_count"`
	Warnings       []string `json:"warnings"`
	Errors         []string `json:"errors"`
	ImportID       *int64   `json:"import_id,omitempty"`
}
