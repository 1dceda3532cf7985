package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/patrykkdev/nocna-apteka/internal/catalog"
	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

type ProductHandler struct {
	catalog catalog.Repository
	timeout time.Duration
}

func NewProductHandler(repo catalog.Repository, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: repo,
		timeout: timeout,
	}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if term := r.URL.Query().Get("q"); term != "" {
		products, err := h.catalog.Search(ctx, term)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to search products")
			return
		}
		respondJSON(w, http.StatusOK, products)
		return
	}

	products, err := h.catalog.ListAll(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	barcode := chi.URLParam(r, "barcode")
	product, err := h.catalog.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if product.Barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}
	if product.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	if err := h.catalog.Add(ctx, product); err != nil {
		if errors.Is(err, catalog.ErrDuplicateCode) {
			respondError(w, http.StatusConflict, "already_exists", "product with this barcode already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	barcode := chi.URLParam(r, "barcode")

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	product.Barcode = barcode
	if product.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	if err := h.catalog.Update(ctx, product); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	barcode := chi.URLParam(r, "barcode")
	if err := h.catalog.Delete(ctx, barcode); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
