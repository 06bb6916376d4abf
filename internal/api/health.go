package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.Live)
		r.Get("/ready", h.Ready)
	})
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": "error",
			"detail":   err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready", "database": "ok"})
}
