package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/models"
)

// AddOrderItem appends a line item to a pending order.
type AddOrderItem struct {
	orders domain.OrderRepository
}

func NewAddOrderItem(orders domain.OrderRepository) *AddOrderItem {
	return &AddOrderItem{orders: orders}
}

// AddOrderItemCommand carries the request to add an item.
type AddOrderItemCommand struct {
	OrderID   string `json:"-"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
}

// AddOrderItemResponse reports the updated totals.
type AddOrderItemResponse struct {
	OrderID    string       `json:"order_id"`
	GrandTotal models.Money `json:"grand_total"`
}

// Execute adds the item.
func (uc *AddOrderItem) Execute(ctx context.Context, cmd *AddOrderItemCommand) (*AddOrderItemResponse, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	productID, err := models.NewID(cmd.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product ID")
	}

	order, err := uc.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	item := domain.OrderItem{
		ProductID: productID,
		Name:      cmd.Name,
		Quantity:  cmd.Quantity,
		UnitPrice: models.NewMoney(cmd.UnitPrice, cmd.Currency),
	}

	if err := order.AddItem(item); err != nil {
		return nil, err
	}

	if err := uc.orders.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	return &AddOrderItemResponse{
		OrderID:    order.ID.String(),
		GrandTotal: order.GrandTotal,
	}, nil
}
