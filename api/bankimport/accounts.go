package bankimport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	core "FinTrack/internal/bankimport"
)

// CreateAccount registers a new statement source. The embedded CsvLayout is
// validated up front: an account whose csv_config cannot drive the parser is
// rejected here rather than at import time.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID             string           `json:"user_id"`
		BankName           string           `json:"bank_name"`
		AccountName        string           `json:"account_name"`
		AccountNumberLast4 string           `json:"account_number_last4"`
		AccountType        core.AccountType `json:"account_type"`
		CsvConfig          core.CsvLayout   `json:"csv_config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" || body.BankName == "" {
		http.Error(w, "Missing or invalid user_id/bank_name", http.StatusBadRequest)
		return
	}
	if err := validateLayout(body.CsvConfig); err != nil {
		http.Error(w, "Invalid csv_config: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.AccountType == "" {
		body.AccountType = core.AccountTypeOther
	}

	configJSON, err := json.Marshal(body.CsvConfig)
	if err != nil {
		http.Error(w, "Invalid csv_config", http.StatusBadRequest)
		return
	}

	var id int64
	err = h.pool.QueryRow(r.Context(), `
		INSERT INTO bank_accounts (user_id, bank_name, account_name, account_number_last4, account_type, csv_config)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, body.UserID, body.BankName, body.AccountName, body.AccountNumberLast4, string(body.AccountType), configJSON).Scan(&id)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	success(w, map[string]any{"account_id": id})
}

// ListAccounts returns the user's statement sources, active first.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	rows, err := h.pool.Query(r.Context(), `
		SELECT id, user_id, bank_name, account_name, account_number_last4,
		       account_type, csv_config, is_active, created_at, updated_at
		FROM bank_accounts
		WHERE user_id = $1
		ORDER BY is_active DESC, id ASC
	`, userID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	accounts := []core.BankAccount{}
	for rows.Next() {
		var (
			account    core.BankAccount
			configJSON []byte
		)
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.BankName, &account.AccountName,
			&account.AccountNumberLast4, &account.AccountType, &configJSON,
			&account.IsActive, &account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			continue
		}
		json.Unmarshal(configJSON, &account.CsvConfig)
		accounts = append(accounts, account)
	}
	success(w, accounts)
}

// UpdateAccount replaces the mutable fields of an account.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var body struct {
		UserID      string           `json:"user_id"`
		BankName    string           `json:"bank_name"`
		AccountName string           `json:"account_name"`
		AccountType core.AccountType `json:"account_type"`
		CsvConfig   core.CsvLayout   `json:"csv_config"`
		IsActive    *bool            `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		http.Error(w, "Missing or invalid user_id", http.StatusBadRequest)
		return
	}
	if err := validateLayout(body.CsvConfig); err != nil {
		http.Error(w, "Invalid csv_config: "+err.Error(), http.StatusBadRequest)
		return
	}
	configJSON, _ := json.Marshal(body.CsvConfig)

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	tag, err := h.pool.Exec(r.Context(), `
		UPDATE bank_accounts
		SET bank_name = $1, account_name = $2, account_type = $3,
		    csv_config = $4, is_active = $5, updated_at = now()
		WHERE id = $6 AND user_id = $7
	`, body.BankName, body.AccountName, string(body.AccountType), configJSON, isActive, id, body.UserID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}
	success(w, map[string]any{"account_id": id})
}

// DeactivateAccount soft-deletes an account. Import history stays intact.
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	tag, err := h.pool.Exec(r.Context(), `
		UPDATE bank_accounts SET is_active = false, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}
	success(w, map[string]any{"account_id": id})
}
