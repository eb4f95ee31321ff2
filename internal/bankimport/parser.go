package bankimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// fallbackDateFormats are tried in order when the configured format fails.
var fallbackDateFormats = []string{
	"YYYY-MM-DD",
	"DD/MM/YYYY",
	"MM/DD/YYYY",
	"DD-MM-YYYY",
	"MM-DD-YYYY",
	"YYYY/MM/DD",
}

// dateTokenReplacer rewrites statement-config date tokens into Go layouts.
var dateTokenReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// currencyStripper removes currency symbols, thousand separators and whitespace
// from raw amount strings before numeric parsing.
var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₹", "",
	",", "", " ", "", "\t", "",
)

// CsvParser turns raw statement bytes plus a CsvLayout into parsed
// transactions. Bad rows are skipped with a logged warning; only a file that
// cannot be decoded at all fails the whole call.
type CsvParser struct{}

func NewCsvParser() *CsvParser {
	return &CsvParser{}
}

// Parse decodes the file, drops the configured header rows and converts each
// remaining row. Output order matches input row order after skips.
func (p *CsvParser) Parse(file []byte, layout CsvLayout) ([]ParsedTransaction, error) {
	rows, err := decodeRows(file, layout)
	if err != nil {
		return nil, err
	}

	// SkipRows comes from stored configuration; clamp rather than trust it.
	skip := layout.SkipRows
	if skip < 0 {
		skip = 0
	}
	if skip > len(rows) {
		rows = nil
	} else {
		rows = rows[skip:]
	}
	log.Printf("[CsvParser] Processing %d data rows", len(rows))

	txns := make([]ParsedTransaction, 0, len(rows))
	for i, row := range rows {
		txn, ok := p.parseRow(row, layout, i+skip)
		if ok {
			txns = append(txns, txn)
		}
	}
	log.Printf("[CsvParser] Parsed %d transactions", len(txns))
	return txns, nil
}

// decodeRows splits the file into raw string rows. Excel exports are detected
// by file signature; everything else is read as delimited text.
func decodeRows(file []byte, layout CsvLayout) ([][]string, error) {
	switch {
	case bytes.HasPrefix(file, []byte("PK\x03\x04")):
		return decodeXlsxRows(file)
	case bytes.HasPrefix(file, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return decodeXlsRows(file)
	default:
		return decodeCsvRows(file, layout)
	}
}

func decodeCsvRows(file []byte, layout CsvLayout) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(file))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if layout.Delimiter != "" {
		r.Comma = []rune(layout.Delimiter)[0]
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decoding CSV: %w", err)
	}
	return rows, nil
}

func decodeXlsxRows(file []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading xlsx rows: %w", err)
	}
	return rows, nil
}

func decodeXlsRows(file []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(file), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls file has no sheets")
	}
	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		fields := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			fields = append(fields, row.Col(j))
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

// parseRow converts one raw row. The bool result is false when the row is
// filtered out or skipped.
func (p *CsvParser) parseRow(row []string, layout CsvLayout, rowIndex int) (ParsedTransaction, bool) {
	dateStr := cleanValue(fieldAt(row, layout.Columns.Date))
	description := cleanValue(fieldAt(row, layout.Columns.Description))
	amountStr := cleanValue(fieldAt(row, layout.Columns.Amount))

	if !passesFilters(row, layout) {
		// Filtered rows are expected, not worth a warning.
		return ParsedTransaction{}, false
	}

	if dateStr == "" || description == "" || amountStr == "" {
		log.Printf("[CsvParser] Row %d: missing required fields, skipping", rowIndex)
		return ParsedTransaction{}, false
	}

	date, ok := parseDate(dateStr, layout.DateFormat)
	if !ok {
		log.Printf("[CsvParser] Row %d: invalid date %q, skipping", rowIndex, dateStr)
		return ParsedTransaction{}, false
	}

	amount, ok := parseAmount(amountStr, layout.AmountFormat)
	if !ok {
		log.Printf("[CsvParser] Row %d: invalid amount %q, skipping", rowIndex, amountStr)
		return ParsedTransaction{}, false
	}

	var txnType TxnType
	if layout.Columns.Type != nil {
		if typeStr := cleanValue(fieldAt(row, *layout.Columns.Type)); typeStr != "" {
			upper := strings.ToUpper(typeStr)
			if strings.Contains(upper, "CR") || strings.Contains(upper, "CREDIT") {
				txnType = TxnCredit
			} else {
				txnType = TxnDebit
			}
		}
	}

	return ParsedTransaction{
		Date:        date,
		Description: description,
		Amount:      &amount,
		Type:        txnType,
		RawRow:      row,
	}, true
}

func fieldAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// cleanValue trims the field and unwraps Excel literal text (="value").
func cleanValue(value string) string {
	cleaned := strings.TrimSpace(value)
	if strings.HasPrefix(cleaned, `="`) && strings.HasSuffix(cleaned, `"`) && len(cleaned) >= 3 {
		cleaned = cleaned[2 : len(cleaned)-1]
	}
	return cleaned
}

// parseDate tries the configured format first, then the fallback list.
func parseDate(dateStr, format string) (time.Time, bool) {
	if format != "" {
		if t, err := time.Parse(dateTokenReplacer.Replace(format), dateStr); err == nil {
			return t, true
		}
	}
	for _, f := range fallbackDateFormats {
		if t, err := time.Parse(dateTokenReplacer.Replace(f), dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount normalizes a raw amount string to its signed value.
// Parenthesized values and a leading minus both mean negative; a configured
// credit indicator forces the value positive.
func parseAmount(amountStr string, format *AmountFormat) (decimal.Decimal, bool) {
	clean := currencyStripper.Replace(amountStr)

	isNegative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		isNegative = true
		clean = clean[1 : len(clean)-1]
	}
	if strings.HasPrefix(clean, "-") {
		isNegative = true
		clean = clean[1:]
	}
	if format != nil && format.CreditIndicator != "" && strings.Contains(amountStr, format.CreditIndicator) {
		isNegative = false
		clean = strings.ReplaceAll(clean, format.CreditIndicator, "")
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if isNegative {
		return amount.Abs().Neg(), true
	}
	return amount.Abs(), true
}

// passesFilters applies the layout's per-column include/exclude filters.
// A row rejected here produces no transaction and no warning.
func passesFilters(row []string, layout CsvLayout) bool {
	if len(layout.Filters) == 0 {
		return true
	}

	columnIndex := map[string]int{
		"date":        layout.Columns.Date,
		"description": layout.Columns.Description,
		"amount":      layout.Columns.Amount,
	}
	if layout.Columns.Type != nil {
		columnIndex["type"] = *layout.Columns.Type
	}

	for name, filter := range layout.Filters {
		idx, ok := columnIndex[name]
		if !ok {
			continue
		}
		value := strings.ToUpper(cleanValue(fieldAt(row, idx)))

		if len(filter.Include) > 0 {
			matched := false
			for _, want := range filter.Include {
				if strings.Contains(value, strings.ToUpper(want)) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		for _, avoid := range filter.Exclude {
			if strings.Contains(value, strings.ToUpper(avoid)) {
				return false
			}
		}
	}
	return true
}
