package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safar/commerce-admin/internal/database"
	"github.com/safar/commerce-admin/internal/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encode json response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store/database errors onto the HTTP taxonomy:
// missing entities 404, uniqueness conflicts 409, invalid input 400,
// anything else 500.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrCustomerNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrDuplicateSKU),
		errors.Is(err, database.ErrDuplicateEmail),
		errors.Is(err, database.ErrDuplicateCategory),
		errors.Is(err, database.ErrInsufficientStock):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
