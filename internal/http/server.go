package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/patrykkdev/nocna-apteka/internal/catalog"
	"github.com/patrykkdev/nocna-apteka/internal/notify"
	"github.com/patrykkdev/nocna-apteka/internal/receipt"
	"github.com/patrykkdev/nocna-apteka/internal/store"
)

// RouterConfig carries everything the HTTP surface serves.
type RouterConfig struct {
	Engine   CartEngine
	Catalog  catalog.Repository
	Carts    store.CartStore
	Terminal TerminalView
	Scanner  BarcodeScanner
	Receipts receipt.Repository
	Notifier *notify.Notifier
	Timeout  time.Duration
}

// NewRouter wires the chi router for all POS screens.
func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Engine, cfg.Catalog, cfg.Notifier, cfg.Timeout)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Timeout)
	terminalHandler := NewTerminalHandler(cfg.Terminal, cfg.Scanner, cfg.Receipts, cfg.Timeout)
	eventsHandler := NewEventsHandler(cfg.Carts)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Get("/events", eventsHandler.CartEvents)
		r.Post("/finalize", cartHandler.Finalize)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{barcode}", cartHandler.UpdateQuantity)
		r.Delete("/items/{barcode}", cartHandler.RemoveItem)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Post("/", productHandler.AddProduct)
		r.Get("/{barcode}", productHandler.GetProduct)
		r.Put("/{barcode}", productHandler.UpdateProduct)
		r.Delete("/{barcode}", productHandler.DeleteProduct)
	})

	r.Post("/scan", terminalHandler.Scan)
	r.Get("/terminal", terminalHandler.GetState)
	r.Get("/receipts", terminalHandler.ListReceipts)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return otelhttp.NewHandler(r, "pos-gateway")
}
