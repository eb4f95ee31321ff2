package config

import (
	"os"
	"strings"
)

const (
	DefaultTimeZone = "UTC"

	// UncategorizedName is the fallback category assigned when no rule matches.
	UncategorizedName = "Uncategorized"

	// ImportBatchSize is the number of expenses inserted per batch during the
	// persistence stage of an import.
	ImportBatchSize = 500

	// MaxUploadBytes caps statement uploads at the HTTP boundary.
	MaxUploadBytes = 10 << 20

	// Recategorization Job Constants
	DefaultRecategorizationSchedule = "0 2 * * *" // 2 AM daily
	RecategorizationBatchSize       = 500
)

// OwnTransferMarkers returns the description markers that identify a user's
// own inter-account transfers, which are excluded from expense tracking.
// Configured via FINTRACK_OWN_TRANSFER_MARKERS (comma separated).
func OwnTransferMarkers() []string {
	raw := os.Getenv("FINTRACK_OWN_TRANSFER_MARKERS")
	if raw == "" {
		return nil
	}
	var markers []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			markers = append(markers, m)
		}
	}
	return markers
}
