package bankimport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	core "FinTrack/internal/bankimport"
)

func validTestLayout() core.CsvLayout {
	return core.CsvLayout{
		Delimiter:  ",",
		SkipRows:   1,
		Columns:    core.ColumnMapping{Date: 0, Description: 1, Amount: 2},
		DateFormat: "DD/MM/YYYY",
	}
}

func TestValidateLayoutAccepts(t *testing.T) {
	assert.NoError(t, validateLayout(validTestLayout()))

	typeCol := 3
	layout := validTestLayout()
	layout.Columns.Type = &typeCol
	layout.AmountFormat = &core.AmountFormat{NegativePattern: "()"}
	assert.NoError(t, validateLayout(layout))
}

func TestValidateLayoutMultiCharDelimiter(t *testing.T) {
	layout := validTestLayout()
	layout.Delimiter = ";;"
	assert.Error(t, validateLayout(layout))
}

func TestValidateLayoutNegativeSkipRows(t *testing.T) {
	layout := validTestLayout()
	layout.SkipRows = -1
	assert.Error(t, validateLayout(layout))
}

func TestValidateLayoutOverlappingColumns(t *testing.T) {
	layout := validTestLayout()
	layout.Columns.Amount = layout.Columns.Date
	assert.Error(t, validateLayout(layout))
}

func TestValidateLayoutNegativeColumn(t *testing.T) {
	layout := validTestLayout()
	layout.Columns.Description = -2
	assert.Error(t, validateLayout(layout))
}

func TestValidateLayoutBadNegativePattern(t *testing.T) {
	layout := validTestLayout()
	layout.AmountFormat = &core.AmountFormat{NegativePattern: "[]"}
	assert.Error(t, validateLayout(layout))
}
