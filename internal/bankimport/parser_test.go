package bankimport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func basicLayout() CsvLayout {
	return CsvLayout{
		Delimiter:  ",",
		SkipRows:   1,
		Columns:    ColumnMapping{Date: 0, Description: 1, Amount: 2},
		DateFormat: "DD/MM/YYYY",
	}
}

func TestParseBasicStatement(t *testing.T) {
	file := []byte("Date,Description,Amount\n01/03/2024,GROCERY STORE,-45.50\n02/03/2024,SALARY,2500.00\n")

	txns, err := NewCsvParser().Parse(file, basicLayout())
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "GROCERY STORE", txns[0].Description)
	assert.Equal(t, "-45.5", txns[0].Amount.String())

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), txns[1].Date)
	assert.Equal(t, "2500", txns[1].Amount.String())
}

func TestParseSkipRows(t *testing.T) {
	file := []byte("Bank of Testing\nStatement period: March\nDate,Description,Amount\n01/03/2024,COFFEE,-3.50\n")
	layout := basicLayout()
	layout.SkipRows = 3

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "COFFEE", txns[0].Description)
}

func TestParseNegativeSkipRows(t *testing.T) {
	// A csv_config edited directly in the database can carry a negative
	// skip_rows; it must behave like zero, not panic.
	file := []byte("01/03/2024,COFFEE,-3.50\n02/03/2024,LUNCH,-12.00\n")
	layout := basicLayout()
	layout.SkipRows = -3

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestParseSkipRowsBeyondFile(t *testing.T) {
	file := []byte("only,one,row\n")
	layout := basicLayout()
	layout.SkipRows = 10

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestParseParenthesesNegative(t *testing.T) {
	file := []byte("01/03/2024,CARD PAYMENT,(100.00)\n")
	layout := basicLayout()
	layout.SkipRows = 0
	layout.AmountFormat = &AmountFormat{NegativePattern: "()"}

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "-100", txns[0].Amount.String())
}

func TestParseCreditIndicatorForcesPositive(t *testing.T) {
	file := []byte("01/03/2024,REFUND,-55.00CR\n")
	layout := basicLayout()
	layout.SkipRows = 0
	layout.AmountFormat = &AmountFormat{CreditIndicator: "CR"}

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Amount.IsPositive(), "credit indicator should override the minus sign")
	assert.Equal(t, "55", txns[0].Amount.String())
}

func TestParseCurrencySymbolsAndThousands(t *testing.T) {
	file := []byte(`01/03/2024,RENT,"-$1,250.00"` + "\n")
	layout := basicLayout()
	layout.SkipRows = 0

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "-1250", txns[0].Amount.String())
}

func TestParseExcelLiteralWrapper(t *testing.T) {
	file := []byte(`="01/03/2024",="ONLINE TRANSFER",="-20.00"` + "\n")
	layout := basicLayout()
	layout.SkipRows = 0

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "ONLINE TRANSFER", txns[0].Description)
	assert.Equal(t, "-20", txns[0].Amount.String())
}

func TestParseFallbackDateFormats(t *testing.T) {
	// Configured format fails, ISO fallback succeeds.
	file := []byte("2024-03-15,UTILITY BILL,-80.00\n")
	layout := basicLayout()
	layout.SkipRows = 0

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)
}

func TestParseSkipsBadRows(t *testing.T) {
	file := []byte("01/03/2024,GOOD ROW,-10.00\n" +
		"not-a-date,BAD DATE,-5.00\n" +
		"02/03/2024,,NO DESC\n" +
		"03/03/2024,BAD AMOUNT,abc\n" +
		"04/03/2024,ANOTHER GOOD ROW,15.00\n")
	layout := basicLayout()
	layout.SkipRows = 0

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "GOOD ROW", txns[0].Description)
	assert.Equal(t, "ANOTHER GOOD ROW", txns[1].Description)
}

func TestParseTypeColumn(t *testing.T) {
	file := []byte("01/03/2024,DEPOSIT,100.00,CR\n01/03/2024,WITHDRAWAL,50.00,DR\n")
	layout := basicLayout()
	layout.SkipRows = 0
	layout.Columns.Type = intPtr(3)

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, TxnCredit, txns[0].Type)
	assert.Equal(t, TxnDebit, txns[1].Type)
}

func TestParseIncludeFilter(t *testing.T) {
	file := []byte("01/03/2024,POS GROCERY,-10.00,POSTED\n02/03/2024,PENDING CHARGE,-5.00,PENDING\n")
	layout := basicLayout()
	layout.SkipRows = 0
	layout.Columns.Type = intPtr(3)
	layout.Filters = map[string]ColumnFilter{
		"type": {Include: []string{"POSTED"}},
	}

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "POS GROCERY", txns[0].Description)
}

func TestParseExcludeFilter(t *testing.T) {
	file := []byte("01/03/2024,GROCERY,-10.00\n02/03/2024,INTEREST ADJUSTMENT,-5.00\n")
	layout := basicLayout()
	layout.SkipRows = 0
	layout.Filters = map[string]ColumnFilter{
		"description": {Exclude: []string{"ADJUSTMENT"}},
	}

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "GROCERY", txns[0].Description)
}

func TestParseSemicolonDelimiter(t *testing.T) {
	file := []byte("01/03/2024;CAFE;-7.25\n")
	layout := basicLayout()
	layout.SkipRows = 0
	layout.Delimiter = ";"

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "CAFE", txns[0].Description)
	assert.Equal(t, "-7.25", txns[0].Amount.String())
}

func TestParseShortRowSkipped(t *testing.T) {
	file := []byte("01/03/2024,ONLY TWO FIELDS\n01/03/2024,FULL ROW,-1.00\n")
	layout := basicLayout()
	layout.SkipRows = 0

	txns, err := NewCsvParser().Parse(file, layout)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "FULL ROW", txns[0].Description)
}

func TestParseAmountSignNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"-45.50", "-45.5"},
		{"(45.50)", "-45.5"},
		{"45.50", "45.5"},
		{"$45.50", "45.5"},
		{"-€45.50", "-45.5"},
	}
	for _, tc := range cases {
		amount, ok := parseAmount(tc.raw, &AmountFormat{NegativePattern: "()"})
		require.True(t, ok, "parsing %q", tc.raw)
		assert.Equal(t, tc.want, amount.String(), "raw %q", tc.raw)
	}
}
