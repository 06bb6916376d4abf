package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safar/commerce-admin/internal/store"
)

type DashboardHandler struct {
	db *sql.DB
}

func NewDashboardHandler(db *sql.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.Dashboard)
		r.Get("/stats", h.Stats)
		r.Get("/sales-chart", h.SalesChart)
		r.Get("/top-products", h.TopProducts)
		r.Get("/recent-orders", h.RecentOrders)
	})
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := store.GetDashboard(r.Context(), h.db)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetDashboardStats(r.Context(), h.db)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) SalesChart(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 || days > 365 {
		days = 30
	}

	points, err := store.GetSalesChart(r.Context(), h.db, days)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}

func (h *DashboardHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	products, err := store.GetTopProducts(r.Context(), h.db, 5)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *DashboardHandler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := store.GetRecentOrders(r.Context(), h.db, 5)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
