package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/safar/commerce-admin/internal/store"
)

type ProductsHandler struct {
	db *sql.DB
}

func NewProductsHandler(db *sql.DB) *ProductsHandler {
	return &ProductsHandler{db: db}
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.CreateCategory)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/stock", h.AdjustStock)
		})
	})
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	filter := store.ListProductsFilter{
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid category ID")
			return
		}
		filter.CategoryID = &categoryID
	}

	result, err := store.ListProducts(r.Context(), h.db, filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string           `json:"name"`
		SKU         string           `json:"sku"`
		Description string           `json:"description"`
		Price       decimal.Decimal  `json:"price"`
		CostPrice   *decimal.Decimal `json:"cost_price"`
		Stock       int              `json:"stock_quantity"`
		CategoryID  *int64           `json:"category_id"`
		ImageURL    string           `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.db, store.CreateProductInput{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := store.GetProduct(r.Context(), h.db, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		CostPrice   *decimal.Decimal `json:"cost_price"`
		CategoryID  *int64           `json:"category_id"`
		ImageURL    *string          `json:"image_url"`
		IsActive    *bool            `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := store.UpdateProduct(r.Context(), h.db, id, store.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := store.SoftDeleteProduct(r.Context(), h.db, id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *ProductsHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := store.AdjustStock(r.Context(), h.db, id, req.Delta)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.db)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, categories)
}

func (h *ProductsHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.db, req.Name, req.Description)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, category)
}
