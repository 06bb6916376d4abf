package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/safar/commerce-admin/internal/ai"
	"github.com/safar/commerce-admin/internal/ratelimit"
)

// NewRouter assembles the versioned API. The rate limiter wraps every
// route except the health checks (by exempt prefix inside the limiter
// middleware).
func NewRouter(db *sql.DB, limiter *ratelimit.Limiter, exemptPrefix string, aiClient *ai.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(ratelimit.Middleware(limiter, exemptPrefix))

	r.Route("/api/v1", func(r chi.Router) {
		NewHealthHandler(db).Register(r)
		NewProductsHandler(db).Register(r)
		NewCustomersHandler(db).Register(r)
		NewOrdersHandler(db).Register(r)
		NewDashboardHandler(db).Register(r)
		NewAIHandler(aiClient).Register(r)
	})

	return r
}
