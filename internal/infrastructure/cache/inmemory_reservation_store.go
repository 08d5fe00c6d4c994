package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/google/uuid"
)

// defaultCleanupInterval is how often expired claims are swept
const defaultCleanupInterval = time.Minute

type reservationKey struct {
	tenantID uuid.UUID
	code     string
}

// InMemoryReservationStore implements BarcodeReservationStore with a map.
// Claims are local to the process, so it only protects single-instance deployments.
type InMemoryReservationStore struct {
	mu        sync.Mutex
	entries   map[reservationKey]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReservationStore creates the store and starts its cleanup loop
func NewInMemoryReservationStore() *InMemoryReservationStore {
	return newInMemoryReservationStore(defaultCleanupInterval)
}

func newInMemoryReservationStore(cleanupInterval time.Duration) *InMemoryReservationStore {
	store := &InMemoryReservationStore{
		entries:  make(map[reservationKey]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(cleanupInterval)

	return store
}

// Reserve claims code for the tenant. An expired claim is taken over.
func (s *InMemoryReservationStore) Reserve(_ context.Context, tenantID uuid.UUID, code string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reservationKey{tenantID: tenantID, code: code}
	now := s.now()
	if expiresAt, exists := s.entries[key]; exists && now.Before(expiresAt) {
		return false, nil
	}

	s.entries[key] = now.Add(ttl)
	return true, nil
}

// Release drops the claim on code
func (s *InMemoryReservationStore) Release(_ context.Context, tenantID uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, reservationKey{tenantID: tenantID, code: code})
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryReservationStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of held claims, expired ones included until swept
func (s *InMemoryReservationStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryReservationStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryReservationStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ catalog.BarcodeReservationStore = (*InMemoryReservationStore)(nil)
