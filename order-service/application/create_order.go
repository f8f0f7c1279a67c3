package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/models"
)

// CreateOrder accepts a new order, persists it and broadcasts the
// OrderCreated event that starts the fulfillment saga.
type CreateOrder struct {
	orders    domain.OrderRepository
	publisher messaging.Publisher
	taxPolicy domain.TaxPolicy
}

// NewCreateOrder creates the use case. A nil tax policy falls back to
// the domain default.
func NewCreateOrder(orders domain.OrderRepository, publisher messaging.Publisher, taxPolicy domain.TaxPolicy) *CreateOrder {
	return &CreateOrder{
		orders:    orders,
		publisher: publisher,
		taxPolicy: taxPolicy,
	}
}

// CreateOrderCommand carries the request to create an order.
type CreateOrderCommand struct {
	CustomerID string                 `json:"customer_id"`
	Items      []CreateOrderItemInput `json:"items"`
}

// CreateOrderItemInput is one requested line item.
type CreateOrderItemInput struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
}

// CreateOrderResponse reports the created order.
type CreateOrderResponse struct {
	OrderID    string       `json:"order_id"`
	Status     string       `json:"status"`
	GrandTotal models.Money `json:"grand_total"`
}

// Execute creates the order.
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	customerID, err := models.NewID(cmd.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid customer ID")
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, input := range cmd.Items {
		productID, err := models.NewID(input.ProductID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid product ID")
		}
		items[i] = domain.OrderItem{
			ProductID: productID,
			Name:      input.Name,
			Quantity:  input.Quantity,
			UnitPrice: models.NewMoney(input.UnitPrice, input.Currency),
		}
	}

	order, err := domain.CreateOrder(customerID, items, uc.taxPolicy)
	if err != nil {
		return nil, err
	}

	if err := uc.orders.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := uc.publisher.Publish(ctx, order.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	order.ClearEvents()

	return &CreateOrderResponse{
		OrderID:    order.ID.String(),
		Status:     string(order.Status),
		GrandTotal: order.GrandTotal,
	}, nil
}

func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}
	if len(cmd.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, item := range cmd.Items {
		if item.ProductID == "" {
			return errors.New("item product ID is required")
		}
		if item.Quantity <= 0 {
			return errors.New("item quantity must be positive")
		}
		if item.Currency == "" {
			return errors.New("item currency is required")
		}
	}
	return nil
}
