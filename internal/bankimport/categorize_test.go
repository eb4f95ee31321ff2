package bankimport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrack/internal/config"
)

type fakeRuleStore struct {
	mu         sync.Mutex
	rules      []CategoryRule
	increments map[int64]int
	failBump   bool
}

func (f *fakeRuleStore) ListActiveRules(ctx context.Context, userID string) ([]CategoryRule, error) {
	return f.rules, nil
}

func (f *fakeRuleStore) IncrementMatchCount(ctx context.Context, ruleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBump {
		return assert.AnError
	}
	if f.increments == nil {
		f.increments = map[int64]int{}
	}
	f.increments[ruleID]++
	return nil
}

func (f *fakeRuleStore) incrementsFor(ruleID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.increments[ruleID]
}

type fakeCategoryStore struct {
	mu       sync.Mutex
	byName   map[string]*Category
	nextID   int64
	created  []string
	failFind bool
}

func (f *fakeCategoryStore) FindByName(ctx context.Context, name string) (*Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, assert.AnError
	}
	if c, ok := f.byName[name]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeCategoryStore) Create(ctx context.Context, category *Category) (*Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byName == nil {
		f.byName = map[string]*Category{}
	}
	f.nextID++
	category.ID = f.nextID
	f.byName[category.Name] = category
	f.created = append(f.created, category.Name)
	return category, nil
}

func txnWithDesc(desc string) ParsedTransaction {
	return ParsedTransaction{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decPtr("-10.00"),
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	groceries := Category{ID: 1, Name: "Groceries"}
	shopping := Category{ID: 2, Name: "Shopping"}
	rules := &fakeRuleStore{rules: []CategoryRule{
		{ID: 10, Pattern: "STORE", Priority: 5, Category: shopping},
		{ID: 11, Pattern: "GROCERY", Priority: 10, Category: groceries},
	}}
	engine := NewCategorizationEngine(rules, &fakeCategoryStore{})

	assigned, err := engine.CategorizeBatch(context.Background(),
		[]ParsedTransaction{txnWithDesc("GROCERY STORE 123")}, "user-1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "Groceries", assigned[0].Name, "higher priority rule should win even when both match")
}

func TestCategorizePriorityTieBrokenByRuleID(t *testing.T) {
	first := Category{ID: 1, Name: "First"}
	second := Category{ID: 2, Name: "Second"}
	rules := &fakeRuleStore{rules: []CategoryRule{
		{ID: 20, Pattern: "PAYMENT", Priority: 5, Category: second},
		{ID: 7, Pattern: "PAY", Priority: 5, Category: first},
	}}
	engine := NewCategorizationEngine(rules, &fakeCategoryStore{})

	assigned, err := engine.CategorizeBatch(context.Background(),
		[]ParsedTransaction{txnWithDesc("CARD PAYMENT")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "First", assigned[0].Name, "equal priority resolves to the older rule")
}

func TestCategorizeCaseInsensitiveSubstring(t *testing.T) {
	cat := Category{ID: 1, Name: "Coffee"}
	rules := &fakeRuleStore{rules: []CategoryRule{
		{ID: 1, Pattern: "coffee", Priority: 1, Category: cat},
	}}
	engine := NewCategorizationEngine(rules, &fakeCategoryStore{})

	assigned, err := engine.CategorizeBatch(context.Background(),
		[]ParsedTransaction{txnWithDesc("STARBUCKS COFFEE #42")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", assigned[0].Name)
}

func TestCategorizeUnmatchedGetsUncategorized(t *testing.T) {
	categories := &fakeCategoryStore{}
	engine := NewCategorizationEngine(&fakeRuleStore{}, categories)

	assigned, err := engine.CategorizeBatch(context.Background(),
		[]ParsedTransaction{txnWithDesc("MYSTERY CHARGE")}, "user-1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, config.UncategorizedName, assigned[0].Name)
	assert.Equal(t, []string{config.UncategorizedName}, categories.created,
		"fallback category is created on first use")
}

func TestCategorizeReusesExistingUncategorized(t *testing.T) {
	categories := &fakeCategoryStore{byName: map[string]*Category{
		config.UncategorizedName: {ID: 42, Name: config.UncategorizedName},
	}}
	engine := NewCategorizationEngine(&fakeRuleStore{}, categories)

	assigned, err := engine.CategorizeBatch(context.Background(),
		[]ParsedTransaction{txnWithDesc("MYSTERY CHARGE")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), assigned[0].ID)
	assert.Empty(t, categories.created)
}

func TestCategorizeRecordsMatchCount(t *testing.T) {
	cat := Category{ID: 1, Name: "Groceries"}
	rules := &fakeRuleStore{rules: []CategoryRule{
		{ID: 5, Pattern: "GROCERY", Priority: 1, Category: cat},
	}}
	engine := NewCategorizationEngine(rules, &fakeCategoryStore{})

	_, err := engine.CategorizeBatch(context.Background(), []ParsedTransaction{
		txnWithDesc("GROCERY ONE"),
		txnWithDesc("GROCERY TWO"),
	}, "user-1")
	require.NoError(t, err)

	// Counter updates are async; give them a moment.
	assert.Eventually(t, func() bool {
		return rules.incrementsFor(5) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestCategorizeFailedCounterDoesNotFailBatch(t *testing.T) {
	cat := Category{ID: 1, Name: "Groceries"}
	rules := &fakeRuleStore{
		rules:    []CategoryRule{{ID: 5, Pattern: "GROCERY", Priority: 1, Category: cat}},
		failBump: true,
	}
	engine := NewCategorizationEngine(rules, &fakeCategoryStore{})

	assigned, err := engine.CategorizeBatch(context.Background(),
		[]ParsedTransaction{txnWithDesc("GROCERY STORE")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", assigned[0].Name)
}

func TestCategorizeIndexAligned(t *testing.T) {
	groceries := Category{ID: 1, Name: "Groceries"}
	rules := &fakeRuleStore{rules: []CategoryRule{
		{ID: 1, Pattern: "GROCERY", Priority: 1, Category: groceries},
	}}
	engine := NewCategorizationEngine(rules, &fakeCategoryStore{})

	assigned, err := engine.CategorizeBatch(context.Background(), []ParsedTransaction{
		txnWithDesc("GROCERY STORE"),
		txnWithDesc("SOMETHING ELSE"),
		txnWithDesc("GROCERY AGAIN"),
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, assigned, 3)
	assert.Equal(t, "Groceries", assigned[0].Name)
	assert.Equal(t, config.UncategorizedName, assigned[1].Name)
	assert.Equal(t, "Groceries", assigned[2].Name)
}
