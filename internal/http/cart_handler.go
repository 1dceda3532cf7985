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
	"github.com/patrykkdev/nocna-apteka/internal/notify"
)

// CartEngine is the part of the cart engine the HTTP surface drives.
type CartEngine interface {
	Items() []domain.CartItem
	AddItem(ctx context.Context, product domain.Product)
	SetQuantity(ctx context.Context, barcode string, quantity int)
	RemoveItem(ctx context.Context, barcode string)
	Clear(ctx context.Context, notifyUser bool)
	Finalize(ctx context.Context)
	TotalPrice() float64
	TotalItems() int
}

// ProductLookup resolves barcodes for the add-to-cart endpoint.
type ProductLookup interface {
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
}

type CartHandler struct {
	engine   CartEngine
	catalog  ProductLookup
	notifier *notify.Notifier
	timeout  time.Duration
}

func NewCartHandler(engine CartEngine, lookup ProductLookup, notifier *notify.Notifier, timeout time.Duration) *CartHandler {
	return &CartHandler{
		engine:   engine,
		catalog:  lookup,
		notifier: notifier,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	Barcode string `json:"barcode"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartViewDTO is the cart as the checkout panel renders it.
type CartViewDTO struct {
	Items        []domain.CartItem `json:"items"`
	TotalPrice   float64           `json:"total_price"`
	TotalItems   int               `json:"total_items"`
	Notification string            `json:"notification,omitempty"`
}

func (h *CartHandler) view() CartViewDTO {
	return CartViewDTO{
		Items:        h.engine.Items(),
		TotalPrice:   h.engine.TotalPrice(),
		TotalItems:   h.engine.TotalItems(),
		Notification: h.notifier.Current(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}

	product, err := h.catalog.GetByBarcode(ctx, req.Barcode)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "failed to look up product")
		return
	}

	h.engine.AddItem(ctx, *product)
	respondJSON(w, http.StatusCreated, h.view())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	barcode := chi.URLParam(r, "barcode")
	if barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Quantity zero or below removes the line, mirroring the +/- buttons.
	h.engine.SetQuantity(ctx, barcode, req.Quantity)
	respondJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	barcode := chi.URLParam(r, "barcode")
	if barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}

	h.engine.RemoveItem(ctx, barcode)
	respondJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.engine.Clear(ctx, true)
	respondJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	empty := h.engine.TotalItems() == 0
	h.engine.Finalize(ctx)
	if empty {
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
		return
	}
	respondJSON(w, http.StatusAccepted, h.view())
}
