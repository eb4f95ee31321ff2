package bankimport

import (
	"context"
	"fmt"
	"log"
	"strings"

	"FinTrack/internal/checksum"
)

// DuplicateCheckResult partitions a batch into never-seen and already-stored
// transactions.
type DuplicateCheckResult struct {
	New        []ParsedTransaction
	Duplicates []ParsedTransaction
}

// DuplicateDetector computes content hashes for statements and transactions
// and partitions candidates against a user's persisted history.
type DuplicateDetector struct {
	expenses ExpenseStore
}

func NewDuplicateDetector(expenses ExpenseStore) *DuplicateDetector {
	return &DuplicateDetector{expenses: expenses}
}

// FileHash is the SHA-256 of the raw statement bytes, used for whole-file
// idempotency.
func (d *DuplicateDetector) FileHash(file []byte) string {
	return checksum.HexSHA256(file)
}

// TransactionHash fingerprints the economic event, not the row text: the
// normalized date, the absolute amount at two decimals and the lowercased,
// whitespace-collapsed description. Sign convention, casing and spacing
// differences never produce distinct hashes.
func (d *DuplicateDetector) TransactionHash(txn ParsedTransaction) string {
	desc := strings.ToLower(strings.TrimSpace(txn.Description))
	desc = strings.Join(strings.Fields(desc), " ")

	amount := "0.00"
	if txn.Amount != nil {
		amount = txn.Amount.Abs().StringFixed(2)
	}

	input := fmt.Sprintf("%s|%s|%s", txn.Date.Format("2006-01-02"), amount, desc)
	return checksum.HexSHA256([]byte(input))
}

// CheckDuplicates hashes every candidate and looks the hashes up against the
// user's stored transactions in one batched query. Cross-file duplicates for
// the same user are caught; other users' transactions are never considered.
func (d *DuplicateDetector) CheckDuplicates(ctx context.Context, txns []ParsedTransaction, userID string) (DuplicateCheckResult, error) {
	result := DuplicateCheckResult{}
	if len(txns) == 0 {
		return result, nil
	}

	hashes := make([]string, len(txns))
	for i, txn := range txns {
		hashes[i] = d.TransactionHash(txn)
	}

	existing, err := d.expenses.FindExistingHashes(ctx, userID, hashes)
	if err != nil {
		return result, fmt.Errorf("looking up existing transaction hashes: %w", err)
	}

	for i, txn := range txns {
		if _, seen := existing[hashes[i]]; seen {
			result.Duplicates = append(result.Duplicates, txn)
		} else {
			result.New = append(result.New, txn)
		}
	}

	log.Printf("[DuplicateDetector] %d new transactions, %d duplicates", len(result.New), len(result.Duplicates))
	return result, nil
}
