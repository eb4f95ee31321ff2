package bankimport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	core "FinTrack/internal/bankimport"
)

// CreateCategory adds a spending category. Names are globally unique.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		http.Error(w, "Missing or invalid name", http.StatusBadRequest)
		return
	}

	var id int64
	err := h.pool.QueryRow(r.Context(), `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id
	`, body.Name, body.Description).Scan(&id)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	success(w, map[string]any{"category_id": id})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pool.Query(r.Context(), `
		SELECT id, name, COALESCE(description, '')
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			continue
		}
		categories = append(categories, c)
	}
	success(w, categories)
}

// CreateRule adds a substring rule pointing at a category.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID     string `json:"user_id"`
		CategoryID int64  `json:"category_id"`
		Pattern    string `json:"pattern"`
		Priority   int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" || body.Pattern == "" {
		http.Error(w, "Missing or invalid user_id/pattern", http.StatusBadRequest)
		return
	}

	var exists bool
	err := h.pool.QueryRow(r.Context(), `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)
	`, body.CategoryID).Scan(&exists)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	var id int64
	err = h.pool.QueryRow(r.Context(), `
		INSERT INTO category_rules (user_id, pattern, category_id, priority, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id
	`, body.UserID, body.Pattern, body.CategoryID, body.Priority).Scan(&id)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	success(w, map[string]any{"rule_id": id})
}

// ListRules returns the user's rules in match order: priority descending,
// id ascending between equal priorities.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	rows, err := h.pool.Query(r.Context(), `
		SELECT r.id, r.user_id, r.pattern, r.category_id, r.priority,
		       r.is_active, r.match_count, r.created_at, r.updated_at,
		       c.id, c.name, COALESCE(c.description, '')
		FROM category_rules r
		JOIN categories c ON c.id = r.category_id
		WHERE r.user_id = $1
		ORDER BY r.priority DESC, r.id ASC
	`, userID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	rules := []core.CategoryRule{}
	for rows.Next() {
		var rule core.CategoryRule
		if err := rows.Scan(
			&rule.ID, &rule.UserID, &rule.Pattern, &rule.CategoryID, &rule.Priority,
			&rule.IsActive, &rule.MatchCount, &rule.CreatedAt, &rule.UpdatedAt,
			&rule.Category.ID, &rule.Category.Name, &rule.Category.Description,
		); err != nil {
			continue
		}
		rules = append(rules, rule)
	}
	success(w, rules)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	var body struct {
		UserID     string `json:"user_id"`
		CategoryID int64  `json:"category_id"`
		Pattern    string `json:"pattern"`
		Priority   int    `json:"priority"`
		IsActive   *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" || body.Pattern == "" {
		http.Error(w, "Missing or invalid user_id/pattern", http.StatusBadRequest)
		return
	}

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	tag, err := h.pool.Exec(r.Context(), `
		UPDATE category_rules
		SET pattern = $1, category_id = $2, priority = $3, is_active = $4, updated_at = now()
		WHERE id = $5 AND user_id = $6
		  AND EXISTS (SELECT 1 FROM categories WHERE id = $2)
	`, body.Pattern, body.CategoryID, body.Priority, isActive, id, body.UserID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}
	success(w, map[string]any{"rule_id": id})
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid rule id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	tag, err := h.pool.Exec(r.Context(), `
		DELETE FROM category_rules WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tag.RowsAffected() == 0 {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}
	success(w, map[string]any{"rule_id": id})
}
