package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
	"github.com/patrykkdev/nocna-apteka/internal/store"
)

// EventsHandler bridges the cart store's change notifications onto
// server-sent events, the push channel the cart and checkout screens
// re-render from.
type EventsHandler struct {
	carts store.CartStore
}

func NewEventsHandler(carts store.CartStore) *EventsHandler {
	return &EventsHandler{carts: carts}
}

func (h *EventsHandler) CartEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan []domain.CartItem, 8)
	cancel, err := h.carts.Subscribe(r.Context(), func(items []domain.CartItem) {
		select {
		case events <- items:
		default:
			// Slow client, drop. The next change carries the full state.
		}
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "subscribe_failed", "failed to subscribe to cart")
		return
	}
	defer cancel()

	// Send the current state first so the client does not render empty
	// until the next change.
	if items, errRead := h.carts.Read(r.Context()); errRead == nil {
		writeEvent(w, items)
		flusher.Flush()
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case items := <-events:
			writeEvent(w, items)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, items []domain.CartItem) {
	payload, err := json.Marshal(items)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
