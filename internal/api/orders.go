package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/pricing"
	"github.com/safar/commerce-admin/internal/store"
)

type OrdersHandler struct {
	db *sql.DB
}

func NewOrdersHandler(db *sql.DB) *OrdersHandler {
	return &OrdersHandler{db: db}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
		})
	})
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListOrders(r.Context(), h.db, store.ListOrdersFilter{
		Status:   r.URL.Query().Get("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID      int64  `json:"customer_id"`
		ShippingAddress string `json:"shipping_address"`
		Notes           string `json:"notes"`
		Items           []struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var items []pricing.LineInput
	for _, item := range req.Items {
		items = append(items, pricing.LineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := store.CreateOrder(r.Context(), h.db, store.CreateOrderRequest{
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Items:           items,
	})
	if err != nil {
		// A dangling product or customer reference in the request body
		// is the caller's fault, not a missing resource.
		if errors.Is(err, database.ErrProductNotFound) || errors.Is(err, database.ErrCustomerNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := store.GetOrder(r.Context(), h.db, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status          *string `json:"status"`
		ShippingAddress *string `json:"shipping_address"`
		Notes           *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := store.UpdateOrder(r.Context(), h.db, id, store.UpdateOrderInput{
		Status:          req.Status,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
