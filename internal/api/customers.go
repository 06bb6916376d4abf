package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safar/commerce-admin/internal/store"
)

type CustomersHandler struct {
	db *sql.DB
}

func NewCustomersHandler(db *sql.DB) *CustomersHandler {
	return &CustomersHandler{db: db}
}

func (h *CustomersHandler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/orders", h.Orders)
		})
	})
}

func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListCustomers(r.Context(), h.db, store.ListCustomersFilter{
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		City      string `json:"city"`
		Country   string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := store.CreateCustomer(r.Context(), h.db, store.CreateCustomerInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, customer)
}

func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.db, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var req struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Phone     *string `json:"phone"`
		Address   *string `json:"address"`
		City      *string `json:"city"`
		Country   *string `json:"country"`
		IsActive  *bool   `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := store.UpdateCustomer(r.Context(), h.db, id, store.UpdateCustomerInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	if err := store.SoftDeleteCustomer(r.Context(), h.db, id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *CustomersHandler) Orders(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListCustomerOrders(r.Context(), h.db, id, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
