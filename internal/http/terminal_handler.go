package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/patrykkdev/nocna-apteka/internal/receipt"
	"github.com/patrykkdev/nocna-apteka/internal/terminal"
)

// TerminalView is the part of the payment terminal the checkout screen
// polls.
type TerminalView interface {
	State() terminal.State
	Remaining() time.Duration
}

// BarcodeScanner accepts submitted codes from the scan endpoint.
type BarcodeScanner interface {
	Scan(ctx context.Context, code string)
	LastScanned() string
}

type TerminalHandler struct {
	terminal TerminalView
	scanner  BarcodeScanner
	receipts receipt.Repository
	timeout  time.Duration
}

func NewTerminalHandler(view TerminalView, scanner BarcodeScanner, receipts receipt.Repository, timeout time.Duration) *TerminalHandler {
	return &TerminalHandler{
		terminal: view,
		scanner:  scanner,
		receipts: receipts,
		timeout:  timeout,
	}
}

type TerminalStateDTO struct {
	State       terminal.State `json:"state"`
	RemainingMS int64          `json:"remaining_ms"`
}

func (h *TerminalHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TerminalStateDTO{
		State:       h.terminal.State(),
		RemainingMS: h.terminal.Remaining().Milliseconds(),
	})
}

type ScanRequestDTO struct {
	Code string `json:"code"`
}

type ScanResponseDTO struct {
	LastScanned string `json:"last_scanned,omitempty"`
}

// Scan feeds a code into the scan pipeline. The result surfaces through
// notifications and the cart view, the same way a hardware scan does.
func (h *TerminalHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ScanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "code must not be empty")
		return
	}

	h.scanner.Scan(ctx, req.Code)
	respondJSON(w, http.StatusAccepted, ScanResponseDTO{LastScanned: h.scanner.LastScanned()})
}

func (h *TerminalHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_since", "since must be RFC3339")
			return
		}
		since = parsed
	}

	receipts, err := h.receipts.List(ctx, since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list receipts")
		return
	}
	respondJSON(w, http.StatusOK, receipts)
}
