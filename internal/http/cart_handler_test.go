package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/patrykkdev/nocna-apteka/internal/catalog"
	"github.com/patrykkdev/nocna-apteka/internal/cart"
	"github.com/patrykkdev/nocna-apteka/internal/domain"
	"github.com/patrykkdev/nocna-apteka/internal/notify"
	"github.com/patrykkdev/nocna-apteka/internal/store"
)

func newCartHandler(t *testing.T) (*CartHandler, *cart.Engine, *store.MemoryPaymentStore) {
	t.Helper()
	carts := store.NewMemoryCartStore()
	payments := store.NewMemoryPaymentStore()
	notifier := notify.New(zerolog.Nop())

	engine := cart.NewEngine(carts, payments, notifier, zerolog.Nop())
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("failed to start engine: %v", err)
	}
	t.Cleanup(engine.Close)

	repo := catalog.NewMemoryRepository()
	if err := repo.Add(context.Background(), domain.Product{Barcode: "123", Name: "Aspirin 500mg", Price: 12.5}); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	return NewCartHandler(engine, repo, notifier, 5*time.Second), engine, payments
}

func TestAddItem_Success(t *testing.T) {
	handler, _, _ := newCartHandler(t)

	body, _ := json.Marshal(AddItemRequestDTO{Barcode: "123"})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader(body))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, recorder.Code)
	}

	var view CartViewDTO
	if err := json.NewDecoder(recorder.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.TotalItems != 1 {
		t.Errorf("Expected 1 item, got %d", view.TotalItems)
	}
	if view.TotalPrice != 12.5 {
		t.Errorf("Expected total 12.5, got %f", view.TotalPrice)
	}
}

func TestAddItem_UnknownBarcode(t *testing.T) {
	handler, _, _ := newCartHandler(t)

	body, _ := json.Marshal(AddItemRequestDTO{Barcode: "999"})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader(body))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestAddItem_InvalidBody(t *testing.T) {
	handler, _, _ := newCartHandler(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewReader([]byte("{not json")))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	handler, engine, _ := newCartHandler(t)
	engine.AddItem(context.Background(), domain.Product{Barcode: "123", Name: "Aspirin 500mg", Price: 12.5})

	body, _ := json.Marshal(UpdateQuantityRequestDTO{Quantity: 0})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("PUT", "/cart/items/123", bytes.NewReader(body))
	request = withURLParam(request, "barcode", "123")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var view CartViewDTO
	if err := json.NewDecoder(recorder.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(view.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(view.Items))
	}
}

func TestRemoveItem_Success(t *testing.T) {
	handler, engine, _ := newCartHandler(t)
	engine.AddItem(context.Background(), domain.Product{Barcode: "123", Name: "Aspirin 500mg", Price: 12.5})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("DELETE", "/cart/items/123", nil)
	request = withURLParam(request, "barcode", "123")

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
}

func TestFinalize_EmptyCart(t *testing.T) {
	handler, _, payments := newCartHandler(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/finalize", nil)

	handler.Finalize(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}

	flag, _ := payments.Read(context.Background())
	if flag {
		t.Error("Empty-cart finalize must not raise the payment flag")
	}
}

func TestFinalize_RaisesFlag(t *testing.T) {
	handler, engine, payments := newCartHandler(t)
	engine.AddItem(context.Background(), domain.Product{Barcode: "123", Name: "Aspirin 500mg", Price: 12.5})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/finalize", nil)

	handler.Finalize(recorder, request)

	if recorder.Code != http.StatusAccepted {
		t.Errorf("Expected status code %d, got %d", http.StatusAccepted, recorder.Code)
	}

	flag, _ := payments.Read(context.Background())
	if !flag {
		t.Error("Finalize must raise the payment flag")
	}
}

func TestGetCart_ReturnsView(t *testing.T) {
	handler, engine, _ := newCartHandler(t)
	engine.AddItem(context.Background(), domain.Product{Barcode: "123", Name: "Aspirin 500mg", Price: 12.5})
	engine.AddItem(context.Background(), domain.Product{Barcode: "123", Name: "Aspirin 500mg", Price: 12.5})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/cart", nil)

	handler.GetCart(recorder, request)

	var view CartViewDTO
	if err := json.NewDecoder(recorder.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.TotalItems != 2 {
		t.Errorf("Expected 2 items, got %d", view.TotalItems)
	}
	if view.TotalPrice != 25.0 {
		t.Errorf("Expected total 25.0, got %f", view.TotalPrice)
	}
}
