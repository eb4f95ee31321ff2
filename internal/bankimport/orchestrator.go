package bankimport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"FinTrack/internal/config"
)

// maxNameLength truncates expense names derived from long descriptions.
const maxNameLength = 100

// OrchestratorConfig wires the pipeline's collaborators.
type OrchestratorConfig struct {
	Accounts   AccountStore
	Expenses   ExpenseStore
	History    ImportHistoryStore
	Rules      RuleStore
	Categories CategoryStore
	TxRunner   TxRunner

	// OwnTransferMarkers are description substrings identifying the user's own
	// inter-account transfers. Empty means no filtering.
	OwnTransferMarkers []string
	// BatchSize for expense inserts; defaults to config.ImportBatchSize.
	BatchSize int
}

// Orchestrator sequences one statement import end to end: parse, validate,
// filter, dedupe, categorize, persist. It never panics or returns an error
// past its boundary; every run produces an ImportReport.
type Orchestrator struct {
	parser    *CsvParser
	validator *TransactionValidator
	dedup     *DuplicateDetector
	engine    *CategorizationEngine

	accounts AccountStore
	expenses ExpenseStore
	history  ImportHistoryStore
	txRunner TxRunner

	ownTransferMarkers []string
	batchSize          int
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.ImportBatchSize
	}
	return &Orchestrator{
		parser:             NewCsvParser(),
		validator:          NewTransactionValidator(),
		dedup:              NewDuplicateDetector(cfg.Expenses),
		engine:             NewCategorizationEngine(cfg.Rules, cfg.Categories),
		accounts:           cfg.Accounts,
		expenses:           cfg.Expenses,
		history:            cfg.History,
		txRunner:           cfg.TxRunner,
		ownTransferMarkers: cfg.OwnTransferMarkers,
		batchSize:          batchSize,
	}
}

// ImportStatement runs the full pipeline for one uploaded statement.
func (o *Orchestrator) ImportStatement(ctx context.Context, file []byte, userID string, accountID int64, fileName string) *ImportReport {
	start := time.Now()
	log.Printf("[Import] Starting statement import: user=%s account=%d file=%s", userID, accountID, fileName)

	report := &ImportReport{
		Warnings: []string{},
		Errors:   []string{},
	}

	if err := o.runStages(ctx, file, userID, accountID, fileName, report); err != nil {
		report.Success = false
		report.Errors = append(report.Errors, err.Error())
		log.Printf("[Import] Import failed: %v", err)
	}

	o.logSummary(report, time.Since(start))
	return report
}

// runStages executes the pipeline stages in order. Any returned error aborts
// the run; persistence is atomic so a failure there leaves no partial rows.
func (o *Orchestrator) runStages(ctx context.Context, file []byte, userID string, accountID int64, fileName string, report *ImportReport) error {
	// Stage 1: load account configuration.
	account, err := o.loadAccount(ctx, accountID, userID)
	if err != nil {
		return err
	}

	// Stage 2: parse.
	parsed, err := o.parser.Parse(file, account.CsvConfig)
	if err != nil {
		return fmt.Errorf("parsing statement: %w", err)
	}
	report.TotalRows = len(parsed)
	if len(parsed) == 0 {
		return errors.New("no valid transactions found in file")
	}

	// Stage 3: validate. Any hard error aborts the whole import.
	validation := o.validator.Validate(parsed, account.AccountType)
	report.Warnings = append(report.Warnings, validation.Warnings...)
	if !validation.Valid {
		report.Errors = append(report.Errors, validation.Errors...)
		return fmt.Errorf("validation failed with %d errors", len(validation.Errors))
	}
	valid := excludeIndexes(parsed, validation.InvalidIndexes)

	// Stage 4: drop own-account transfers.
	kept := o.filterOwnTransfers(valid, report)

	// Stage 5: whole-file idempotency.
	fileHash := o.dedup.FileHash(file)
	existing, err := o.history.FindByFileHash(ctx, userID, fileHash)
	if err != nil {
		return fmt.Errorf("checking import history: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("This file has already been imported on %s", existing.CreatedAt.Format(time.RFC3339))
	}

	// Stage 6: per-transaction duplicates.
	duplicateCheck, err := o.dedup.CheckDuplicates(ctx, kept, userID)
	if err != nil {
		return err
	}
	report.DuplicateCount = len(duplicateCheck.Duplicates)
	if len(duplicateCheck.New) == 0 {
		log.Printf("[Import] No new transactions to import (all duplicates)")
		report.Success = true
		return nil
	}

	// Stage 7: categorize the new rows only.
	categories, err := o.engine.CategorizeBatch(ctx, duplicateCheck.New, userID)
	if err != nil {
		return err
	}

	// Stage 8: persist atomically. The run is non-cancellable from here on.
	return o.persist(context.WithoutCancel(ctx), persistInput{
		userID:         userID,
		accountID:      accountID,
		fileName:       fileName,
		fileHash:       fileHash,
		totalRows:      len(parsed),
		duplicateCount: len(duplicateCheck.Duplicates),
		errorCount:     len(validation.InvalidIndexes),
		txns:           duplicateCheck.New,
		categories:     categories,
	}, report)
}

func (o *Orchestrator) loadAccount(ctx context.Context, accountID int64, userID string) (*BankAccount, error) {
	account, err := o.accounts.GetAccount(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, fmt.Errorf("bank account %d not found or does not belong to user", accountID)
		}
		return nil, fmt.Errorf("loading bank account: %w", err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("bank account %q is inactive", account.AccountName)
	}
	return account, nil
}

// filterOwnTransfers drops transactions whose description contains a
// configured self-transfer marker, recording a warning per dropped row.
func (o *Orchestrator) filterOwnTransfers(txns []ParsedTransaction, report *ImportReport) []ParsedTransaction {
	if len(o.ownTransferMarkers) == 0 {
		return txns
	}
	kept := txns[:0:0]
	for _, txn := range txns {
		upper := strings.ToUpper(txn.Description)
		ownTransfer := false
		for _, marker := range o.ownTransferMarkers {
			if strings.Contains(upper, strings.ToUpper(marker)) {
				ownTransfer = true
				break
			}
		}
		if ownTransfer {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Skipped own-account transfer: %s", txn.Description))
			continue
		}
		kept = append(kept, txn)
	}
	if dropped := len(txns) - len(kept); dropped > 0 {
		log.Printf("[Import] Filtered out %d own-account transfers", dropped)
	}
	return kept
}

type persistInput struct {
	userID         string
	accountID      int64
	fileName       string
	fileHash       string
	totalRows      int
	duplicateCount int
	errorCount     int
	txns           []ParsedTransaction
	categories     []Category
}

// persist creates the import history record and inserts expenses in fixed-size
// batches inside one transaction. Any failure rolls everything back.
func (o *Orchestrator) persist(ctx context.Context, in persistInput, report *ImportReport) error {
	return o.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		// Re-validate file idempotency inside the transaction to close the
		// race between the earlier check and this write.
		existing, err := o.history.FindByFileHash(txCtx, in.userID, in.fileHash)
		if err != nil {
			return fmt.Errorf("re-checking import history: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("This file has already been imported on %s", existing.CreatedAt.Format(time.RFC3339))
		}

		importID, err := o.history.Create(txCtx, &ImportHistory{
			UserID:         in.userID,
			AccountID:      in.accountID,
			FileName:       in.fileName,
			FileHash:       in.fileHash,
			TotalRows:      in.totalRows,
			DuplicateCount: in.duplicateCount,
			ErrorCount:     in.errorCount,
			Status:         ImportStatusSuccess,
		})
		if err != nil {
			return fmt.Errorf("creating import history: %w", err)
		}

		expenses := o.buildExpenses(in, importID)

		imported := 0
		totalBatches := (len(expenses) + o.batchSize - 1) / o.batchSize
		for i := 0; i < len(expenses); i += o.batchSize {
			end := min(i+o.batchSize, len(expenses))
			batch := expenses[i:end]
			log.Printf("[Import] Inserting batch %d/%d (%d expenses)", i/o.batchSize+1, totalBatches, len(batch))
			if err := o.expenses.InsertBatch(txCtx, batch); err != nil {
				return fmt.Errorf("inserting expense batch: %w", err)
			}
			imported += len(batch)
		}

		if err := o.history.PatchImportedCount(txCtx, importID, imported); err != nil {
			return fmt.Errorf("updating import history: %w", err)
		}

		report.ImportedCount = imported
		report.ImportID = &importID
		report.Success = true
		return nil
	})
}

func (o *Orchestrator) buildExpenses(in persistInput, importID int64) []Expense {
	expenses := make([]Expense, 0, len(in.txns))
	for i, txn := range in.txns {
		// Truncate on rune boundaries; a byte slice could split a multi-byte
		// rune and hand the store invalid UTF-8.
		name := txn.Description
		if utf8.RuneCountInString(name) > maxNameLength {
			name = string([]rune(name)[:maxNameLength])
		}
		expenses = append(expenses, Expense{
			ID:              uuid.NewString(),
			UserID:          in.userID,
			Name:            name,
			Description:     txn.Description,
			RawDescription:  txn.Description,
			Amount:          txn.Amount.Abs(),
			CategoryID:      in.categories[i].ID,
			Date:            txn.Date,
			IsApproved:      false,
			Source:          SourceImport,
			ImportID:        &importID,
			TransactionHash: o.dedup.TransactionHash(txn),
		})
	}
	return expenses
}

// excludeIndexes returns txns minus the rows at the given original indexes.
func excludeIndexes(txns []ParsedTransaction, invalid []int) []ParsedTransaction {
	if len(invalid) == 0 {
		return txns
	}
	skip := make(map[int]struct{}, len(invalid))
	for _, i := range invalid {
		skip[i] = struct{}{}
	}
	kept := make([]ParsedTransaction, 0, len(txns))
	for i, txn := range txns {
		if _, drop := skip[i]; !drop {
			kept = append(kept, txn)
		}
	}
	return kept
}

func (o *Orchestrator) logSummary(report *ImportReport, elapsed time.Duration) {
	log.Printf("[Import] Summary: success=%t total=%d imported=%d duplicates=%d warnings=%d errors=%d (%.2fs)",
		report.Success, report.TotalRows, report.ImportedCount, report.DuplicateCount,
		len(report.Warnings), len(report.Errors), elapsed.Seconds())
	for i, w := range report.Warnings {
		if i == 10 {
			log.Printf("[Import] ... and %d more warnings", len(report.Warnings)-10)
			break
		}
		log.Printf("[Import] warning: %s", w)
	}
	for _, e := range report.Errors {
		log.Printf("[Import] error: %s", e)
	}
}
