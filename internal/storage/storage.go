// Package storage keeps the most recently fetched order dataset in memory.
// The snapshot is replaced whole on refresh and read concurrently by request
// handlers.
package storage

import (
	"sync"
	"time"

	"github.com/holasaidlola/shop-analytics/internal/domain"
)

// Storage provides access to the current order snapshot.
type Storage interface {
	GetOrders() ([]domain.Order, error)
	SetOrders(orders []domain.Order) error
	RefreshedAt() time.Time
}

// MemoryStorage keeps the snapshot in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	clock func() time.Time

	mu          sync.RWMutex
	orders      []domain.Order
	refreshedAt time.Time
}

// StorageOption configures MemoryStorage behaviour.
type StorageOption func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) StorageOption {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage initialises an empty snapshot store.
func NewMemoryStorage(opts ...StorageOption) *MemoryStorage {
	s := &MemoryStorage{
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrders returns a defensive copy of the current snapshot.
func (s *MemoryStorage) GetOrders() ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneOrders(s.orders), nil
}

// SetOrders replaces the snapshot atomically and stamps the refresh time.
// An empty dataset is valid; a shop may simply have no orders yet.
func (s *MemoryStorage) SetOrders(orders []domain.Order) error {
	snapshot := cloneOrders(orders)

	s.mu.Lock()
	s.orders = snapshot
	s.refreshedAt = s.clock()
	s.mu.Unlock()

	return nil
}

// RefreshedAt reports when the snapshot was last replaced; zero before the
// first SetOrders.
func (s *MemoryStorage) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

func cloneOrders(src []domain.Order) []domain.Order {
	if len(src) == 0 {
		return []domain.Order{}
	}

	out := make([]domain.Order, len(src))
	copy(out, src)
	return out
}
