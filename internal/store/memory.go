package store

import (
	"context"
	"sync"
	"time"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// MemoryCartStore implements CartStore with in-memory storage. It backs the
// standalone single-terminal mode and the tests. Subscribers are invoked
// synchronously on every write, which mirrors how the hosted store pushes
// the latest full document after each change.
type MemoryCartStore struct {
	mu      sync.RWMutex
	items   []domain.CartItem
	nextSub int
	subs    map[int]func(items []domain.CartItem)

	// WriteErr, when set, makes every Write fail. Used to simulate
	// store outages.
	WriteErr error
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		subs: make(map[int]func(items []domain.CartItem)),
	}
}

func (s *MemoryCartStore) Read(context.Context) ([]domain.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.items), nil
}

func (s *MemoryCartStore) Write(_ context.Context, items []domain.CartItem) error {
	s.mu.Lock()
	if s.WriteErr != nil {
		s.mu.Unlock()
		return s.WriteErr
	}
	s.items = copyItems(items)
	snapshot := copyItems(items)
	subs := make([]func([]domain.CartItem), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(copyItems(snapshot))
	}
	return nil
}

func (s *MemoryCartStore) Subscribe(_ context.Context, fn func(items []domain.CartItem)) (func(), error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// MemoryPaymentStore implements PaymentStore with in-memory storage.
type MemoryPaymentStore struct {
	mu      sync.RWMutex
	flag    bool
	updated time.Time
	nextSub int
	subs    map[int]func(flag bool, at time.Time)

	WriteErr error
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{
		subs: make(map[int]func(flag bool, at time.Time)),
	}
}

func (s *MemoryPaymentStore) Read(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flag, nil
}

func (s *MemoryPaymentStore) Write(_ context.Context, flag bool) error {
	s.mu.Lock()
	if s.WriteErr != nil {
		s.mu.Unlock()
		return s.WriteErr
	}
	s.flag = flag
	s.updated = time.Now()
	at := s.updated
	subs := make([]func(bool, time.Time), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(flag, at)
	}
	return nil
}

func (s *MemoryPaymentStore) Subscribe(_ context.Context, fn func(flag bool, at time.Time)) (func(), error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

func copyItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
