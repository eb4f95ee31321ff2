package bankimport

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	core "FinTrack/internal/bankimport"
	"FinTrack/internal/config"
	"FinTrack/internal/store/postgres"
)

// Handler carries the shared dependencies of the bank-import HTTP surface.
type Handler struct {
	pool         *pgxpool.Pool
	store        *postgres.Store
	orchestrator *core.Orchestrator
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	store := postgres.NewStore(pool)
	return &Handler{
		pool:  pool,
		store: store,
		orchestrator: core.NewOrchestrator(core.OrchestratorConfig{
			Accounts:           store.Accounts(),
			Expenses:           store.Expenses(),
			History:            store.History(),
			Rules:              store.Rules(),
			Categories:         store.Categories(),
			TxRunner:           store,
			OwnTransferMarkers: config.OwnTransferMarkers(),
		}),
	}
}

// RegisterRoutes mounts all bank-import routes on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/bankimport/statement", h.UploadStatement).Methods("POST")

	r.HandleFunc("/bankimport/accounts", h.CreateAccount).Methods("POST")
	r.HandleFunc("/bankimport/accounts", h.ListAccounts).Methods("GET")
	r.HandleFunc("/bankimport/accounts/{id}", h.UpdateAccount).Methods("PUT")
	r.HandleFunc("/bankimport/accounts/{id}", h.DeactivateAccount).Methods("DELETE")

	r.HandleFunc("/bankimport/categories", h.CreateCategory).Methods("POST")
	r.HandleFunc("/bankimport/categories", h.ListCategories).Methods("GET")

	r.HandleFunc("/bankimport/rules", h.CreateRule).Methods("POST")
	r.HandleFunc("/bankimport/rules", h.ListRules).Methods("GET")
	r.HandleFunc("/bankimport/rules/{id}", h.UpdateRule).Methods("PUT")
	r.HandleFunc("/bankimport/rules/{id}", h.DeleteRule).Methods("DELETE")

	r.HandleFunc("/bankimport/history", h.ListImportHistory).Methods("GET")

	r.HandleFunc("/bankimport/expenses/pending", h.ListPendingExpenses).Methods("GET")
	r.HandleFunc("/bankimport/expenses/{id}/approve", h.ApproveExpense).Methods("POST")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}
