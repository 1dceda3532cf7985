package scan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/patrykkdev/nocna-apteka/internal/catalog"
	"github.com/patrykkdev/nocna-apteka/internal/domain"
	"github.com/patrykkdev/nocna-apteka/internal/notify"
)

const (
	// DefaultDebounce guards against hardware scanners double-firing the
	// same code.
	DefaultDebounce = time.Second

	// lastScannedTTL is how long the "last scanned" label stays up.
	lastScannedTTL = 3 * time.Second
)

// ProductLookup is the part of the catalog a scanner needs.
type ProductLookup interface {
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
}

// CartAdder is the part of the cart engine a scanner needs.
type CartAdder interface {
	AddItem(ctx context.Context, product domain.Product)
}

// Feedback drives the physical confirmation of a successful scan.
type Feedback interface {
	Beep()
	Vibrate()
}

// NopFeedback is used headless and when sound/vibration are disabled in
// settings.
type NopFeedback struct{}

func (NopFeedback) Beep()    {}
func (NopFeedback) Vibrate() {}

// Scanner consumes submitted barcodes: it debounces duplicates, looks the
// code up in the catalog (with EAN format fallbacks) and feeds hits into
// the cart engine.
type Scanner struct {
	catalog  ProductLookup
	cart     CartAdder
	notifier *notify.Notifier
	feedback Feedback
	log      zerolog.Logger

	debounce  time.Duration
	now       func() time.Time
	afterFunc func(d time.Duration, fn func()) *time.Timer

	mu           sync.Mutex
	lastAccepted time.Time
	lastScanned  string
	labelSeq     uint64
}

func NewScanner(lookup ProductLookup, cart CartAdder, notifier *notify.Notifier, feedback Feedback, log zerolog.Logger) *Scanner {
	return &Scanner{
		catalog:   lookup,
		cart:      cart,
		notifier:  notifier,
		feedback:  feedback,
		log:       log.With().Str("component", "scanner").Logger(),
		debounce:  DefaultDebounce,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// SetDebounce overrides the duplicate-scan window.
func (s *Scanner) SetDebounce(d time.Duration) {
	s.mu.Lock()
	s.debounce = d
	s.mu.Unlock()
}

// Run drains keystrokes through the buffer reducer until the channel
// closes or the context is cancelled.
func (s *Scanner) Run(ctx context.Context, keys <-chan rune) {
	var reducer Reducer
	for {
		select {
		case <-ctx.Done():
			return
		case key, open := <-keys:
			if !open {
				return
			}
			if code, ok := reducer.Key(key); ok {
				s.Scan(ctx, code)
			}
		}
	}
}

// Scan processes one submitted code. Scans arriving within the debounce
// window of the previous accepted scan are dropped; the window is tracked
// independently of the key buffer.
func (s *Scanner) Scan(ctx context.Context, code string) {
	now := s.now()

	s.mu.Lock()
	if now.Sub(s.lastAccepted) < s.debounce {
		s.mu.Unlock()
		s.log.Debug().Str("code", code).Msg("scan debounced")
		return
	}
	s.lastAccepted = now
	s.mu.Unlock()

	product, err := s.catalog.GetByBarcode(ctx, code)
	if err == nil {
		s.accept(ctx, product)
		return
	}
	if !errors.Is(err, catalog.ErrProductNotFound) {
		s.log.Error().Err(err).Str("code", code).Msg("scan lookup failed")
		s.notifier.Notify("Błąd podczas skanowania")
		return
	}

	s.notifier.Notify(fmt.Sprintf("Nie znaleziono produktu: %s", code))

	// Scanners sometimes strip or add leading zeros on EAN codes. Retry
	// the common mangled forms before giving up.
	for _, variant := range codeVariants(code) {
		product, err = s.catalog.GetByBarcode(ctx, variant)
		if err == nil {
			s.log.Info().Str("code", code).Str("variant", variant).Msg("matched barcode variant")
			s.accept(ctx, product)
			return
		}
		if !errors.Is(err, catalog.ErrProductNotFound) {
			s.log.Error().Err(err).Str("variant", variant).Msg("variant lookup failed")
			return
		}
	}
}

func (s *Scanner) accept(ctx context.Context, product *domain.Product) {
	s.cart.AddItem(ctx, *product)
	s.feedback.Vibrate()
	s.feedback.Beep()
	s.setLastScanned(product.Name)
}

func (s *Scanner) setLastScanned(name string) {
	s.mu.Lock()
	s.lastScanned = name
	s.labelSeq++
	seq := s.labelSeq
	s.mu.Unlock()

	s.afterFunc(lastScannedTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.labelSeq == seq {
			s.lastScanned = ""
		}
	})
}

// LastScanned returns the name of the most recently scanned product, or ""
// once the label expired.
func (s *Scanner) LastScanned() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScanned
}

// codeVariants returns the fallback lookup chain for a code that missed:
// zero-padded to EAN-13 length, leading zeros stripped, and numeric
// re-parse. Variants equal to the original or to each other are skipped.
func codeVariants(code string) []string {
	var out []string
	seen := map[string]bool{code: true}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	if len(code) < 13 {
		add(strings.Repeat("0", 13-len(code)) + code)
	}
	add(strings.TrimLeft(code, "0"))
	if n, err := strconv.ParseInt(code, 10, 64); err == nil {
		add(strconv.FormatInt(n, 10))
	}
	return out
}
