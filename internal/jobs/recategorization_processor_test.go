package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinTrack/internal/config"
)

func TestMatchRuleForDescription(t *testing.T) {
	rules := []expenseRule{
		{ID: 1, Pattern: "GROCERY", CategoryID: 10, Priority: 10},
		{ID: 2, Pattern: "store", CategoryID: 20, Priority: 5},
	}

	rule, ok := matchRuleForDescription(rules, "grocery store downtown")
	assert.True(t, ok)
	assert.Equal(t, int64(1), rule.ID, "rules are checked in slice order")

	rule, ok = matchRuleForDescription(rules, "CORNER STORE")
	assert.True(t, ok)
	assert.Equal(t, int64(2), rule.ID)

	_, ok = matchRuleForDescription(rules, "fuel station")
	assert.False(t, ok)

	_, ok = matchRuleForDescription(nil, "anything")
	assert.False(t, ok)
}

func TestNewDefaultRecategorizationConfig(t *testing.T) {
	t.Setenv("RECATEGORIZATION_SCHEDULE", "")
	t.Setenv("RECATEGORIZATION_BATCH_SIZE", "")

	cfg := NewDefaultRecategorizationConfig()
	assert.Equal(t, config.DefaultRecategorizationSchedule, cfg.Schedule)
	assert.Equal(t, config.RecategorizationBatchSize, cfg.BatchSize)
	assert.Equal(t, config.DefaultTimeZone, cfg.TimeZone)
}

func TestNewDefaultRecategorizationConfigOverrides(t *testing.T) {
	t.Setenv("RECATEGORIZATION_SCHEDULE", "*/5 * * * *")
	t.Setenv("RECATEGORIZATION_BATCH_SIZE", "100")

	cfg := NewDefaultRecategorizationConfig()
	assert.Equal(t, "*/5 * * * *", cfg.Schedule)
	assert.Equal(t, 100, cfg.BatchSize)
}

func TestNewDefaultRecategorizationConfigBadBatchSize(t *testing.T) {
	t.Setenv("RECATEGORIZATION_BATCH_SIZE", "not-a-number")

	cfg := NewDefaultRecategorizationConfig()
	assert.Equal(t, config.RecategorizationBatchSize, cfg.BatchSize)
}
