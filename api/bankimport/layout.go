package bankimport

import (
	"fmt"

	core "FinTrack/internal/bankimport"
)

// validateLayout rejects CSV layouts the parser cannot work with.
func validateLayout(layout core.CsvLayout) error {
	if layout.Delimiter != "" && len(layout.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", layout.Delimiter)
	}
	if layout.SkipRows < 0 {
		return fmt.Errorf("skip_rows must not be negative")
	}
	cols := layout.Columns
	if cols.Date < 0 || cols.Description < 0 || cols.Amount < 0 {
		return fmt.Errorf("column indexes must not be negative")
	}
	if cols.Date == cols.Description || cols.Date == cols.Amount || cols.Description == cols.Amount {
		return fmt.Errorf("date, description and amount columns must be distinct")
	}
	if cols.Type != nil && *cols.Type < 0 {
		return fmt.Errorf("type column index must not be negative")
	}
	if layout.AmountFormat != nil {
		switch layout.AmountFormat.NegativePattern {
		case "", "-", "()":
		default:
			return fmt.Errorf("negative_pattern must be %q or %q", "-", "()")
		}
	}
	return nil
}
