package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	bankimportapi "FinTrack/api/bankimport"
	"FinTrack/internal/logger"
)

func gatewayPort(cfg map[string]interface{}) string {
	if cfg != nil {
		if v, ok := cfg["port"]; ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}

// auditMiddleware logs every incoming request through the rotating audit log.
func auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP = xff
		}
		msg := fmt.Sprintf("[Gateway] Incoming request: %s %s from %s", r.Method, r.URL.Path, clientIP)
		if logr := logger.GlobalLogger; logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartGateway runs the HTTP server hosting all FinTrack routes.
func StartGateway(cfg map[string]interface{}, pool *pgxpool.Pool) {
	router := mux.NewRouter()
	router.Use(auditMiddleware, corsMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
	}).Methods("GET")

	bankimportapi.NewHandler(pool).RegisterRoutes(router)

	port := gatewayPort(cfg)
	log.Println("Gateway started on :" + port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Gateway failed: %v", err)
	}
}
