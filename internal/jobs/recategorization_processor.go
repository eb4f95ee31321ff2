package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"FinTrack/internal/config"
	"FinTrack/internal/logger"
)

// RecategorizationConfig holds configuration for the scheduled re-run of
// rule matching over expenses still sitting in the Uncategorized bucket.
type RecategorizationConfig struct {
	Schedule  string // cron schedule
	BatchSize int    // expenses fetched and updated per batch
	TimeZone  string
}

// expenseRule is one active rule row, preloaded for in-memory matching.
type expenseRule struct {
	ID         int64
	UserID     string
	Pattern    string
	CategoryID int64
	Priority   int
}

// recategorizationUpdate is one expense that gets a new category.
type recategorizationUpdate struct {
	expenseID  string
	categoryID int64
	ruleID     int64
}

// NewDefaultRecategorizationConfig reads the job settings from the
// environment, falling back to the built-in defaults.
func NewDefaultRecategorizationConfig() *RecategorizationConfig {
	schedule := os.Getenv("RECATEGORIZATION_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultRecategorizationSchedule
	}

	batchSize := config.RecategorizationBatchSize
	if bs := os.Getenv("RECATEGORIZATION_BATCH_SIZE"); bs != "" {
		if parsed, err := strconv.Atoi(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}

	return &RecategorizationConfig{
		Schedule:  schedule,
		BatchSize: batchSize,
		TimeZone:  config.DefaultTimeZone,
	}
}

// RunRecategorizationScheduler starts the cron job that re-applies category
// rules to uncategorized imported expenses. New rules created after an import
// pick up old transactions this way.
func RunRecategorizationScheduler(cfg *RecategorizationConfig, db *sql.DB) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultRecategorizationSchedule
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = config.RecategorizationBatchSize
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		audit(fmt.Sprintf("Invalid timezone %s, falling back to UTC: %v", cfg.TimeZone, err))
	}

	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.Schedule, func() {
		audit(fmt.Sprintf("Starting recategorization job at %s", time.Now().In(loc).Format(time.RFC3339)))
		if err := ProcessUncategorizedExpenses(db, cfg.BatchSize); err != nil {
			audit(fmt.Sprintf("Recategorization job failed: %v", err))
			log.Printf("ERROR: Recategorization job failed: %v", err)
		} else {
			audit("Recategorization job completed successfully")
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule recategorization processor: %v", err)
	}

	c.Start()
	audit(fmt.Sprintf("Recategorization scheduler started with schedule: %s (timezone: %s)", cfg.Schedule, cfg.TimeZone))
	log.Printf("[AUDIT] Recategorization scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)

	return nil
}

// ProcessUncategorizedExpenses re-runs rule matching over all imported
// expenses still assigned to the Uncategorized category. Rules are loaded
// once, matching happens in memory, and updates land in bulk per batch.
func ProcessUncategorizedExpenses(db *sql.DB, batchSize int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
	defer cancel()

	startTime := time.Now()
	if batchSize <= 0 {
		batchSize = config.RecategorizationBatchSize
	}

	// Resolve the Uncategorized bucket. No bucket means nothing was ever
	// imported without a match.
	var uncategorizedID int64
	err := db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1`, config.UncategorizedName).Scan(&uncategorizedID)
	if err == sql.ErrNoRows {
		audit("No Uncategorized category exists, nothing to process")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve uncategorized category: %w", err)
	}

	var totalCount int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM expenses WHERE category_id = $1 AND source = 'IMPORT'
	`, uncategorizedID).Scan(&totalCount)
	if err != nil {
		return fmt.Errorf("failed to count uncategorized expenses: %w", err)
	}
	if totalCount == 0 {
		audit("No uncategorized expenses found")
		return nil
	}
	log.Printf("[AUDIT] Total uncategorized expenses: %d", totalCount)

	// Load ALL active rules once (avoids an N+1 per expense), grouped by user.
	rulesByUser, ruleCount, err := loadActiveRulesByUser(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to load category rules: %w", err)
	}
	log.Printf("[AUDIT] Loaded %d active rules across %d users", ruleCount, len(rulesByUser))

	offset := 0
	totalProcessed := 0
	totalRecategorized := 0

	for {
		rows, err := db.QueryContext(ctx, `
			SELECT id, user_id, description
			FROM expenses
			WHERE category_id = $1 AND source = 'IMPORT'
			ORDER BY date DESC, id ASC
			LIMIT $2 OFFSET $3
		`, uncategorizedID, batchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to query uncategorized expenses at offset %d: %w", offset, err)
		}

		type expenseRow struct {
			id          string
			userID      string
			description string
		}
		var batch []expenseRow
		for rows.Next() {
			var er expenseRow
			if err := rows.Scan(&er.id, &er.userID, &er.description); err != nil {
				audit(fmt.Sprintf("Failed to scan expense row: %v", err))
				continue
			}
			batch = append(batch, er)
		}
		rows.Close()

		if len(batch) == 0 {
			break
		}

		updates := make([]recategorizationUpdate, 0, len(batch))
		for _, exp := range batch {
			totalProcessed++
			rule, ok := matchRuleForDescription(rulesByUser[exp.userID], exp.description)
			if !ok {
				continue
			}
			updates = append(updates, recategorizationUpdate{
				expenseID:  exp.id,
				categoryID: rule.CategoryID,
				ruleID:     rule.ID,
			})
			totalRecategorized++
		}

		if len(updates) > 0 {
			if err := bulkApplyUpdates(ctx, db, updates); err != nil {
				audit(fmt.Sprintf("Bulk update failed for batch at offset %d, falling back to individual updates: %v", offset, err))
				for _, u := range updates {
					if _, err := db.ExecContext(ctx, `UPDATE expenses SET category_id = $1 WHERE id = $2`, u.categoryID, u.expenseID); err != nil {
						audit(fmt.Sprintf("Failed to update expense %s: %v", u.expenseID, err))
					}
				}
			}
		}

		// Matched rows leave the filter set, so only unmatched rows push the
		// offset forward.
		offset += len(batch) - len(updates)

		if len(batch) < batchSize {
			break
		}
	}

	duration := time.Since(startTime)
	summary := fmt.Sprintf("Recategorization completed: %d/%d expenses recategorized, %d remain uncategorized (Duration: %v)",
		totalRecategorized, totalProcessed, totalProcessed-totalRecategorized, duration.Round(time.Millisecond))
	audit(summary)
	log.Println(summary)

	return nil
}

// loadActiveRulesByUser fetches every active rule ordered by priority DESC
// then rule id ASC, so the first in-memory match is always the winner.
func loadActiveRulesByUser(ctx context.Context, db *sql.DB) (map[string][]expenseRule, int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, pattern, category_id, priority
		FROM category_rules
		WHERE is_active = true
		ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rulesByUser := make(map[string][]expenseRule)
	count := 0
	for rows.Next() {
		var r expenseRule
		if err := rows.Scan(&r.ID, &r.UserID, &r.Pattern, &r.CategoryID, &r.Priority); err != nil {
			return nil, 0, err
		}
		rulesByUser[r.UserID] = append(rulesByUser[r.UserID], r)
		count++
	}
	return rulesByUser, count, rows.Err()
}

// matchRuleForDescription returns the first rule whose pattern is a
// case-insensitive substring of the description.
func matchRuleForDescription(rules []expenseRule, description string) (expenseRule, bool) {
	desc := strings.ToLower(description)
	for _, rule := range rules {
		if strings.Contains(desc, strings.ToLower(rule.Pattern)) {
			return rule, true
		}
	}
	return expenseRule{}, false
}

// bulkApplyUpdates writes one batch of category changes and the matching rule
// counter bumps in two statements.
func bulkApplyUpdates(ctx context.Context, db *sql.DB, updates []recategorizationUpdate) error {
	ids := make([]string, len(updates))
	categoryIDs := make([]int64, len(updates))
	hitsPerRule := make(map[int64]int64)
	for i, u := range updates {
		ids[i] = u.expenseID
		categoryIDs[i] = u.categoryID
		hitsPerRule[u.ruleID]++
	}

	_, err := db.ExecContext(ctx, `
		UPDATE expenses SET category_id = u.category_id
		FROM (SELECT unnest($1::varchar[]) AS id, unnest($2::bigint[]) AS category_id) u
		WHERE expenses.id = u.id
	`, pq.Array(ids), pq.Array(categoryIDs))
	if err != nil {
		return err
	}

	ruleIDs := make([]int64, 0, len(hitsPerRule))
	hits := make([]int64, 0, len(hitsPerRule))
	for id, n := range hitsPerRule {
		ruleIDs = append(ruleIDs, id)
		hits = append(hits, n)
	}
	_, err = db.ExecContext(ctx, `
		UPDATE category_rules SET match_count = match_count + c.n
		FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::bigint[]) AS n) c
		WHERE category_rules.id = c.id
	`, pq.Array(ruleIDs), pq.Array(hits))
	if err != nil {
		// Counter drift is tolerable; the category updates already landed.
		audit(fmt.Sprintf("Failed to bump rule match counters: %v", err))
	}
	return nil
}

func audit(msg string) {
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(msg)
	}
}
