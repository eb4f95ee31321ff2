package bankimport

import (
	"net/http"
	"strconv"

	core "FinTrack/internal/bankimport"
)

// ListImportHistory returns import runs for the user, newest first.
// Optional account_id narrows to a single account; limit defaults to 50.
func (h *Handler) ListImportHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	query := `
		SELECT id, user_id, account_id, COALESCE(file_name, ''), COALESCE(file_hash, ''),
		       total_rows, imported_count, duplicate_count, error_count,
		       status, COALESCE(error_details::text, ''), created_at
		FROM import_history
		WHERE user_id = $1`
	args := []any{userID}
	if v := r.URL.Query().Get("account_id"); v != "" {
		accountID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "Invalid account_id", http.StatusBadRequest)
			return
		}
		query += ` AND account_id = $2`
		args = append(args, accountID)
	}
	query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := h.pool.Query(r.Context(), query, args...)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	history := []core.ImportHistory{}
	for rows.Next() {
		var rec core.ImportHistory
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.AccountID, &rec.FileName, &rec.FileHash,
			&rec.TotalRows, &rec.ImportedCount, &rec.DuplicateCount, &rec.ErrorCount,
			&rec.Status, &rec.ErrorDetails, &rec.CreatedAt,
		); err != nil {
			continue
		}
		history = append(history, rec)
	}
	success(w, history)
}
