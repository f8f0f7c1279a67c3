package infrastructure

import (
	"context"
	"sync"

	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/models"
)

// MemoryOrderRepository is a map-backed domain.OrderRepository with the
// same optimistic-concurrency contract as the Postgres one.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[models.ID]*domain.Order
}

var _ domain.OrderRepository = (*MemoryOrderRepository)(nil)

// NewMemoryOrderRepository creates an empty repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[models.ID]*domain.Order)}
}

// Save persists the order, enforcing the version check the database
// enforces in the real repository.
func (r *MemoryOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if order.Version.Value == 1 {
		if ok {
			return domain.ErrConcurrentUpdate
		}
	} else {
		if !ok || existing.Version.Value != order.Version.Value-1 {
			return domain.ErrConcurrentUpdate
		}
	}

	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	stored.ClearEvents()
	r.orders[order.ID] = &stored
	return nil
}

// FindByID retrieves an order.
func (r *MemoryOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	out := *stored
	out.Items = append([]domain.OrderItem(nil), stored.Items...)
	return &out, nil
}
