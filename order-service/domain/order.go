package domain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/models"
)

// OrderStatus represents the externally visible status of an order.
// Transitions are one-directional except cancellation, which is
// reachable from any non-terminal status.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// statusRank orders the forward path; cancellation sits outside it.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusPaid:      1,
	OrderStatusShipped:   2,
	OrderStatusCompleted: 3,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	if s == OrderStatusCanceled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID models.ID
	Name      string
	Quantity  int
	UnitPrice models.Money
}

// Total returns quantity times unit price.
func (i OrderItem) Total() models.Money {
	return i.UnitPrice.Multiply(int64(i.Quantity))
}

func (i OrderItem) validate() error {
	if i.ProductID.IsZero() {
		return errors.New("item product ID is required")
	}
	if i.Quantity <= 0 {
		return errors.New("item quantity must be positive")
	}
	if i.UnitPrice.Amount < 0 {
		return errors.New("item unit price must not be negative")
	}
	if i.UnitPrice.Currency == "" {
		return errors.New("item currency is required")
	}
	return nil
}

// TaxPolicy computes tax from a subtotal.
type TaxPolicy func(subtotal models.Money) models.Money

// FlatTaxPolicy taxes the subtotal at a fixed percentage.
func FlatTaxPolicy(percent int64) TaxPolicy {
	return func(subtotal models.Money) models.Money {
		return models.NewMoney(subtotal.Amount*percent/100, subtotal.Currency)
	}
}

// DefaultTaxPolicy is applied when no policy is configured.
var DefaultTaxPolicy = FlatTaxPolicy(10)

// Order aggregate root. Totals are derived from the items and the tax
// policy, recomputed whenever items change and never set independently.
type Order struct {
	ID         models.ID
	CustomerID models.ID
	Items      []OrderItem
	Status     OrderStatus
	Subtotal   models.Money
	Tax        models.Money
	GrandTotal models.Money
	Timestamps models.Timestamps
	Version    models.Version

	taxPolicy TaxPolicy
	events    []*messaging.Message
}

// CreateOrder creates a pending order with at least one item. All items
// must share one currency. A nil policy falls back to DefaultTaxPolicy.
func CreateOrder(customerID models.ID, items []OrderItem, policy TaxPolicy) (*Order, error) {
	if customerID.IsZero() {
		return nil, errors.New("customer ID is required")
	}
	if len(items) == 0 {
		return nil, errors.New("order must have at least one item")
	}
	if policy == nil {
		policy = DefaultTaxPolicy
	}

	order := &Order{
		ID:         models.GenerateUUID(),
		CustomerID: customerID,
		Status:     OrderStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
		taxPolicy:  policy,
	}

	for _, item := range items {
		if err := order.appendItem(item); err != nil {
			return nil, err
		}
	}
	order.recomputeTotals()

	order.recordEvent(messaging.NewEvent(order.ID, messaging.TopicOrderCreated, messaging.OrderCreatedData{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Total:      order.GrandTotal,
		Items:      order.itemData(),
	}))

	return order, nil
}

// AddItem appends a line item. Items may only change while Pending.
func (o *Order) AddItem(item OrderItem) error {
	if o.Status != OrderStatusPending {
		return errors.Errorf("cannot add items to a %s order", o.Status)
	}
	if err := o.appendItem(item); err != nil {
		return err
	}

	o.recomputeTotals()
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
	return nil
}

// ApplyStatus moves the order to the given status. Forward transitions
// must not go backwards; cancellation is allowed from any non-terminal
// status. The reason is carried for diagnostics only.
func (o *Order) ApplyStatus(status OrderStatus, reason string) error {
	if !ValidStatus(status) {
		return errors.Errorf("unknown order status %q", status)
	}

	if o.Status == OrderStatusCompleted || o.Status == OrderStatusCanceled {
		return errors.Errorf("order is already %s", o.Status)
	}

	if status == OrderStatusCanceled {
		o.transition(status, reason)
		return nil
	}

	if statusRank[status] <= statusRank[o.Status] {
		return errors.Errorf("cannot move order from %s to %s", o.Status, status)
	}

	o.transition(status, reason)
	return nil
}

func (o *Order) transition(status OrderStatus, reason string) {
	o.Status = status
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	o.recordEvent(messaging.NewEvent(o.ID, messaging.TopicOrderStatusChanged, messaging.OrderStatusChangedData{
		OrderID: o.ID,
		Status:  string(status),
		Reason:  reason,
	}))
}

func (o *Order) appendItem(item OrderItem) error {
	if err := item.validate(); err != nil {
		return err
	}
	if len(o.Items) > 0 && item.UnitPrice.Currency != o.Items[0].UnitPrice.Currency {
		return errors.New("all order items must share one currency")
	}
	o.Items = append(o.Items, item)
	return nil
}

func (o *Order) recomputeTotals() {
	currency := o.Items[0].UnitPrice.Currency
	subtotal := models.NewMoney(0, currency)
	for _, item := range o.Items {
		subtotal, _ = subtotal.Add(item.Total())
	}

	policy := o.taxPolicy
	if policy == nil {
		policy = DefaultTaxPolicy
	}

	o.Subtotal = subtotal
	o.Tax = policy(subtotal)
	o.GrandTotal, _ = o.Subtotal.Add(o.Tax)
}

func (o *Order) itemData() []messaging.OrderItemData {
	items := make([]messaging.OrderItemData, len(o.Items))
	for i, item := range o.Items {
		items[i] = messaging.OrderItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return items
}

// Events returns recorded domain events.
func (o *Order) Events() []*messaging.Message {
	return o.events
}

// ClearEvents clears recorded domain events.
func (o *Order) ClearEvents() {
	o.events = make([]*messaging.Message, 0)
}

func (o *Order) recordEvent(event *messaging.Message) {
	o.events = append(o.events, event)
}

var (
	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrConcurrentUpdate is returned when a save lost the optimistic
	// concurrency race; reload and reapply.
	ErrConcurrentUpdate = errors.New("order was updated concurrently")
)

// OrderRepository persists orders with optimistic concurrency.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
}
