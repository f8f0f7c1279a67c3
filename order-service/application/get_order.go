package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/models"
)

// GetOrder fetches an order by id.
type GetOrder struct {
	orders domain.OrderRepository
}

func NewGetOrder(orders domain.OrderRepository) *GetOrder {
	return &GetOrder{orders: orders}
}

// Execute returns the order or domain.ErrOrderNotFound.
func (uc *GetOrder) Execute(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := models.NewID(orderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orders.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	return order, nil
}
