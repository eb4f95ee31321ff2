package bankimport

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// largeAmountThreshold flags suspiciously large rows, in whatever currency
// unit the statement uses.
var largeAmountThreshold = decimal.NewFromInt(100000)

// creditCardPaymentThreshold flags large positive amounts on credit cards,
// which are usually payments to the card rather than expenses.
var creditCardPaymentThreshold = decimal.NewFromInt(1000)

// TransactionValidator classifies parsed transactions as valid or invalid and
// collects warnings. Warnings never block an import; any error fails the
// whole batch.
type TransactionValidator struct {
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{Now: time.Now}
}

// Validate checks every transaction by original index. Rows with a hard error
// are recorded in InvalidIndexes and skip the remaining checks.
func (v *TransactionValidator) Validate(txns []ParsedTransaction, accountType AccountType) ValidationResult {
	result := ValidationResult{
		Errors:         []string{},
		Warnings:       []string{},
		InvalidIndexes: []int{},
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}

	for i, txn := range txns {
		v.validateTransaction(txn, i, accountType, now, &result)
	}

	result.Valid = len(result.Errors) == 0
	log.Printf("[Validator] Validation complete: %d errors, %d warnings, %d invalid rows",
		len(result.Errors), len(result.Warnings), len(result.InvalidIndexes))
	return result
}

func (v *TransactionValidator) validateTransaction(txn ParsedTransaction, index int, accountType AccountType, now time.Time, result *ValidationResult) {
	var missing []string
	if txn.Date.IsZero() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(txn.Description) == "" {
		missing = append(missing, "description")
	}
	if txn.Amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Transaction %d: Missing required fields: %s", index+1, strings.Join(missing, ", ")))
		result.InvalidIndexes = append(result.InvalidIndexes, index)
		return
	}

	if txn.Date.After(now) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Transaction %d: Date is in the future (%s)", index+1, txn.Date.Format("2006-01-02")))
	}

	if txn.Amount.IsZero() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Transaction %d: Amount is zero", index+1))
	}

	absAmount := txn.Amount.Abs()
	if absAmount.GreaterThan(largeAmountThreshold) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Transaction %d: Large amount detected: %s", index+1, txn.Amount.StringFixed(2)))
	}

	if len(txn.Description) < 2 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Transaction %d: Description is too short", index+1))
	}

	if accountType == AccountTypeCreditCard {
		if txn.Amount.IsPositive() && absAmount.GreaterThan(creditCardPaymentThreshold) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Transaction %d: Large positive amount on credit card (payment?)", index+1))
		}
	}
}
