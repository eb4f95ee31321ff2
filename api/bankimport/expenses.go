package bankimport

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	core "FinTrack/internal/bankimport"
)

// ListPendingExpenses returns imported expenses awaiting review, newest first.
func (h *Handler) ListPendingExpenses(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	rows, err := h.pool.Query(r.Context(), `
		SELECT id, user_id, name, description, COALESCE(raw_description, ''),
		       amount, category_id, date, is_approved, source,
		       import_id, COALESCE(transaction_hash, ''), created_at
		FROM expenses
		WHERE user_id = $1 AND is_approved = false AND source = 'IMPORT'
		ORDER BY date DESC, created_at DESC
	`, userID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Name, &e.Description, &e.RawDescription,
			&e.Amount, &e.CategoryID, &e.Date, &e.IsApproved, &e.Source,
			&e.ImportID, &e.TransactionHash, &e.CreatedAt,
		); err != nil {
			continue
		}
		expenses = append(expenses, e)
	}
	success(w, expenses)
}

// ApproveExpense marks an imported expense as reviewed. The body may carry a
// corrected category_id; when present the reassignment is applied in the same
// statement.
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "Invalid expense id", http.StatusBadRequest)
		return
	}

	var body struct {
		UserID     string `json:"user_id"`
		CategoryID *int64 `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		http.Error(w, "Missing or invalid user_id", http.StatusBadRequest)
		return
	}

	tag, err := h.pool.Exec(r.Context(), `
		UPDATE expenses
		SET is_approved = true,
		    category_id = COALESCE($1, category_id)
		WHERE id = $2 AND user_id = $3
	`, body.CategoryID, id, body.UserID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		http.Error(w, "Expense not found", http.StatusNotFound)
		return
	}
	success(w, map[string]any{"expense_id": id})
}
