package application

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/models"
)

// ApplyStatusChange applies an OrderStatusChanged broadcast from the
// fulfillment saga to the persisted order record. The order's visible
// status only ever changes through this path, so readers never observe
// a half-updated order.
type ApplyStatusChange struct {
	orders domain.OrderRepository
}

func NewApplyStatusChange(orders domain.OrderRepository) *ApplyStatusChange {
	return &ApplyStatusChange{orders: orders}
}

// ApplyStatusChangeCommand carries one status broadcast.
type ApplyStatusChangeCommand struct {
	OrderID string
	Status  string
	Reason  string
}

// Execute applies the status. Duplicate or out-of-order broadcasts are
// acknowledged without effect; a lost concurrency race is returned so
// the transport redelivers.
func (uc *ApplyStatusChange) Execute(ctx context.Context, cmd *ApplyStatusChangeCommand) error {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to find order")
	}

	if err := order.ApplyStatus(domain.OrderStatus(cmd.Status), cmd.Reason); err != nil {
		// Stale or duplicate broadcast; the stored status already moved
		// past this one. Redelivery would fail the same way.
		log.Printf("ignoring status change %s for order %s: %v", cmd.Status, cmd.OrderID, err)
		return nil
	}
	order.ClearEvents()

	if err := uc.orders.Save(ctx, order); err != nil {
		return errors.Wrap(err, "failed to save order")
	}

	return nil
}
