package postgres

import (
	"context"
	"fmt"

	"FinTrack/internal/bankimport"
)

// RuleStore reads categorization rules and records their hits.
type RuleStore struct {
	store *Store
}

// ListActiveRules returns the user's active rules with their categories,
// priority descending then rule id ascending.
func (r *RuleStore) ListActiveRules(ctx context.Context, userID string) ([]bankimport.CategoryRule, error) {
	rows, err := r.store.db(ctx).Query(ctx, `
		SELECT r.id, r.user_id, r.pattern, r.category_id, r.priority,
		       r.is_active, r.match_count, r.created_at, r.updated_at,
		       c.name, COALESCE(c.description, '')
		FROM category_rules r
		JOIN categories c ON c.id = r.category_id
		WHERE r.user_id = $1 AND r.is_active = true
		ORDER BY r.priority DESC, r.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying category rules: %w", err)
	}
	defer rows.Close()

	var rules []bankimport.CategoryRule
	for rows.Next() {
		var rule bankimport.CategoryRule
		if err := rows.Scan(
			&rule.ID, &rule.UserID, &rule.Pattern, &rule.CategoryID, &rule.Priority,
			&rule.IsActive, &rule.MatchCount, &rule.CreatedAt, &rule.UpdatedAt,
			&rule.Category.Name, &rule.Category.Description,
		); err != nil {
			return nil, err
		}
		rule.Category.ID = rule.CategoryID
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// IncrementMatchCount bumps a rule's counter. Callers fire and forget.
func (r *RuleStore) IncrementMatchCount(ctx context.Context, ruleID int64) error {
	_, err := r.store.db(ctx).Exec(ctx, `
		UPDATE category_rules SET match_count = match_count + 1 WHERE id = $1
	`, ruleID)
	return err
}
