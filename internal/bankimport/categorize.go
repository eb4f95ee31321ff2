package bankimport

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"FinTrack/internal/config"
)

// CategorizationEngine assigns categories to transactions by matching their
// descriptions against the user's priority-ordered pattern rules.
type CategorizationEngine struct {
	rules      RuleStore
	categories CategoryStore
}

func NewCategorizationEngine(rules RuleStore, categories CategoryStore) *CategorizationEngine {
	return &CategorizationEngine{rules: rules, categories: categories}
}

// CategorizeBatch returns one category per transaction, index-aligned with the
// input. Rules are loaded once and checked in priority order (ties broken by
// rule id ascending); the first case-insensitive substring match wins. When a
// rule fires its match counter is incremented in the background; a failed
// increment never fails or delays categorization. Transactions with no
// matching rule get the Uncategorized category, resolved (or created) fresh
// for this run.
func (e *CategorizationEngine) CategorizeBatch(ctx context.Context, txns []ParsedTransaction, userID string) ([]Category, error) {
	rules, err := e.rules.ListActiveRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading category rules: %w", err)
	}
	// Deterministic order regardless of store behavior.
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	log.Printf("[Categorization] Loaded %d active rules for user %s", len(rules), userID)

	uncategorized, err := e.resolveUncategorized(ctx)
	if err != nil {
		return nil, err
	}

	assigned := make([]Category, len(txns))
	matchedCount := 0

	for i, txn := range txns {
		desc := strings.ToLower(txn.Description)
		matched := false

		for _, rule := range rules {
			if strings.Contains(desc, strings.ToLower(rule.Pattern)) {
				assigned[i] = rule.Category
				matched = true
				matchedCount++
				e.recordMatch(rule.ID)
				break
			}
		}
		if !matched {
			assigned[i] = *uncategorized
		}
	}

	log.Printf("[Categorization] %d matched, %d uncategorized", matchedCount, len(txns)-matchedCount)
	return assigned, nil
}

// recordMatch bumps the rule's match counter without blocking the caller.
func (e *CategorizationEngine) recordMatch(ruleID int64) {
	go func() {
		if err := e.rules.IncrementMatchCount(context.Background(), ruleID); err != nil {
			log.Printf("[Categorization] Failed to increment match count for rule %d: %v", ruleID, err)
		}
	}()
}

// resolveUncategorized looks up the fallback category, creating it on first
// use. No cross-run caching: a rename between runs must not resurrect a stale
// identity.
func (e *CategorizationEngine) resolveUncategorized(ctx context.Context) (*Category, error) {
	category, err := e.categories.FindByName(ctx, config.UncategorizedName)
	if err != nil {
		return nil, fmt.Errorf("resolving %q category: %w", config.UncategorizedName, err)
	}
	if category != nil {
		return category, nil
	}

	category, err = e.categories.Create(ctx, &Category{
		Name:        config.UncategorizedName,
		Description: "Transactions that need manual categorization",
	})
	if err != nil {
		return nil, fmt.Errorf("creating %q category: %w", config.UncategorizedName, err)
	}
	log.Printf("[Categorization] Created %q category with id %d", config.UncategorizedName, category.ID)
	return category, nil
}
