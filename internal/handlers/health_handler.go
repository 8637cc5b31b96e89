// internal/handlers/health_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"study_wala_backend/internal/middleware"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check はDB疎通まで確認するヘルスチェックです
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		logger := middleware.GetLogger(r.Context())
		logger.Error("Health check failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("NG"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
