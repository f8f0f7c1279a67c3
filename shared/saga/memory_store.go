package saga

import (
	"context"
	"sync"
	"time"

	"github.com/shopfleet/order-system/shared/models"
)

// MemoryStore is an in-process Store with the same optimistic
// concurrency semantics as the Postgres store. Used by tests and local
// single-process runs.
type MemoryStore struct {
	mux       sync.Mutex
	instances map[models.ID]*Instance
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instances: make(map[models.ID]*Instance),
	}
}

// Load returns a copy of the stored instance.
func (s *MemoryStore) Load(ctx context.Context, correlationID models.ID) (*Instance, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	instance, ok := s.instances[correlationID]
	if !ok {
		return nil, ErrNotFound
	}
	return instance.Clone(), nil
}

// Save inserts at version 1, otherwise compare-and-swaps against the
// version the caller read.
func (s *MemoryStore) Save(ctx context.Context, instance *Instance) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, exists := s.instances[instance.CorrelationID]
	if instance.Version.Value == 1 {
		if exists {
			return ErrVersionConflict
		}
	} else {
		if !exists || stored.Version.Value != instance.Version.Value-1 {
			return ErrVersionConflict
		}
	}

	s.instances[instance.CorrelationID] = instance.Clone()
	return nil
}

// ListStalled returns instances not updated since olderThan, skipping
// the excluded (terminal) states.
func (s *MemoryStore) ListStalled(ctx context.Context, olderThan time.Time, exclude ...State) ([]*Instance, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	excluded := make(map[State]bool, len(exclude))
	for _, state := range exclude {
		excluded[state] = true
	}

	var stalled []*Instance
	for _, instance := range s.instances {
		if excluded[instance.State] {
			continue
		}
		if instance.Timestamps.UpdatedAt.Before(olderThan) {
			stalled = append(stalled, instance.Clone())
		}
	}
	return stalled, nil
}
