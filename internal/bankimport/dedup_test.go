package bankimport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpenseStore struct {
	existing map[string]struct{}
	inserted [][]Expense
	failOn   int // fail the nth InsertBatch call (1-based), 0 means never
	calls    int
}

func (f *fakeExpenseStore) FindExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error) {
	found := map[string]struct{}{}
	for _, h := range hashes {
		if _, ok := f.existing[h]; ok {
			found[h] = struct{}{}
		}
	}
	return found, nil
}

func (f *fakeExpenseStore) InsertBatch(ctx context.Context, expenses []Expense) error {
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return assert.AnError
	}
	f.inserted = append(f.inserted, expenses)
	if f.existing == nil {
		f.existing = map[string]struct{}{}
	}
	for _, e := range expenses {
		f.existing[e.TransactionHash] = struct{}{}
	}
	return nil
}

func TestTransactionHashNormalization(t *testing.T) {
	d := NewDuplicateDetector(nil)
	base := ParsedTransaction{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "Grocery Store",
		Amount:      decPtr("-45.50"),
	}

	variants := []ParsedTransaction{
		{Date: base.Date, Description: "GROCERY STORE", Amount: decPtr("-45.50")},
		{Date: base.Date, Description: "  grocery   store  ", Amount: decPtr("-45.50")},
		{Date: base.Date, Description: "Grocery Store", Amount: decPtr("45.50")},
		{Date: base.Date, Description: "grocery\tstore", Amount: decPtr("-45.5")},
	}
	want := d.TransactionHash(base)
	for i, v := range variants {
		assert.Equal(t, want, d.TransactionHash(v), "variant %d should hash identically", i)
	}
}

func TestTransactionHashDistinguishes(t *testing.T) {
	d := NewDuplicateDetector(nil)
	base := ParsedTransaction{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "GROCERY STORE",
		Amount:      decPtr("-45.50"),
	}

	otherDay := base
	otherDay.Date = base.Date.AddDate(0, 0, 1)
	assert.NotEqual(t, d.TransactionHash(base), d.TransactionHash(otherDay))

	otherAmount := base
	otherAmount.Amount = decPtr("-45.51")
	assert.NotEqual(t, d.TransactionHash(base), d.TransactionHash(otherAmount))

	otherDesc := base
	otherDesc.Description = "GROCERY STORE 2"
	assert.NotEqual(t, d.TransactionHash(base), d.TransactionHash(otherDesc))
}

func TestFileHashStable(t *testing.T) {
	d := NewDuplicateDetector(nil)
	file := []byte("Date,Description,Amount\n01/03/2024,COFFEE,-3.50\n")

	assert.Equal(t, d.FileHash(file), d.FileHash(file))
	assert.NotEqual(t, d.FileHash(file), d.FileHash(append(file, '\n')))
	assert.Len(t, d.FileHash(file), 64)
}

func TestCheckDuplicatesPartitions(t *testing.T) {
	txns := []ParsedTransaction{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "SEEN BEFORE", Amount: decPtr("-10.00")},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Description: "BRAND NEW", Amount: decPtr("-20.00")},
	}

	store := &fakeExpenseStore{existing: map[string]struct{}{}}
	d := NewDuplicateDetector(store)
	store.existing[d.TransactionHash(txns[0])] = struct{}{}

	result, err := d.CheckDuplicates(context.Background(), txns, "user-1")
	require.NoError(t, err)

	require.Len(t, result.New, 1)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "BRAND NEW", result.New[0].Description)
	assert.Equal(t, "SEEN BEFORE", result.Duplicates[0].Description)
}

func TestCheckDuplicatesEmptyBatch(t *testing.T) {
	d := NewDuplicateDetector(&fakeExpenseStore{})
	result, err := d.CheckDuplicates(context.Background(), nil, "user-1")
	require.NoError(t, err)
	assert.Empty(t, result.New)
	assert.Empty(t, result.Duplicates)
}
