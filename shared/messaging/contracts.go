package messaging

import (
	"github.com/shopfleet/order-system/shared/models"
)

// Message contracts between the order service and its collaborators.
// Commands are consumed by exactly one service; events are broadcast.
// Payloads are immutable once published.

// Command topics.
const (
	TopicReserveInventory Topic = "inventory.reserve"
	TopicReleaseInventory Topic = "inventory.release"
	TopicProcessPayment   Topic = "payment.process"
	TopicRefundPayment    Topic = "payment.refund"
	TopicCreateShipment   Topic = "shipment.create"
)

// Integration event topics.
const (
	TopicOrderCreated               Topic = "order.created"
	TopicInventoryReserved          Topic = "inventory.reserved"
	TopicInventoryReservationFailed Topic = "inventory.reservation.failed"
	TopicPaymentProcessed           Topic = "payment.processed"
	TopicPaymentFailed              Topic = "payment.failed"
	TopicShipmentCreated            Topic = "shipment.created"
	TopicShipmentFailed             Topic = "shipment.failed"
	TopicOrderDelivered             Topic = "order.delivered"
	TopicOrderStatusChanged         Topic = "order.status.changed"
)

// OrderItemData is a line item as carried on the wire.
type OrderItemData struct {
	ProductID models.ID    `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
}

// OrderCreatedData starts a fulfillment saga.
type OrderCreatedData struct {
	OrderID    models.ID       `json:"order_id"`
	CustomerID models.ID       `json:"customer_id"`
	Total      models.Money    `json:"total"`
	Items      []OrderItemData `json:"items"`
}

type InventoryReservedData struct {
	OrderID       models.ID `json:"order_id"`
	ReservationID string    `json:"reservation_id"`
}

type InventoryReservationFailedData struct {
	OrderID models.ID `json:"order_id"`
	Reason  string    `json:"reason"`
}

type PaymentProcessedData struct {
	OrderID   models.ID `json:"order_id"`
	PaymentID string    `json:"payment_id"`
}

type PaymentFailedData struct {
	OrderID models.ID `json:"order_id"`
	Reason  string    `json:"reason"`
}

type ShipmentCreatedData struct {
	OrderID    models.ID `json:"order_id"`
	ShipmentID string    `json:"shipment_id"`
}

type ShipmentFailedData struct {
	OrderID models.ID `json:"order_id"`
	Reason  string    `json:"reason"`
}

type OrderDeliveredData struct {
	OrderID models.ID `json:"order_id"`
}

// OrderStatusChangedData is the saga's only outbound broadcast; the
// order service applies it to the persisted order record, other
// subscribers consume it as they see fit.
type OrderStatusChangedData struct {
	OrderID models.ID `json:"order_id"`
	Status  string    `json:"status"`
	Reason  string    `json:"reason,omitempty"`
}

// ReserveInventoryData asks the inventory service to reserve stock for
// an order. Keyed by order id so the reservation is idempotent.
type ReserveInventoryData struct {
	OrderID models.ID       `json:"order_id"`
	Items   []OrderItemData `json:"items"`
}

type ReleaseInventoryData struct {
	OrderID       models.ID `json:"order_id"`
	ReservationID string    `json:"reservation_id"`
}

type ProcessPaymentData struct {
	OrderID    models.ID    `json:"order_id"`
	CustomerID models.ID    `json:"customer_id"`
	Amount     models.Money `json:"amount"`
}

type RefundPaymentData struct {
	OrderID   models.ID    `json:"order_id"`
	PaymentID string       `json:"payment_id"`
	Amount    models.Money `json:"amount"`
}

type CreateShipmentData struct {
	OrderID    models.ID `json:"order_id"`
	CustomerID models.ID `json:"customer_id"`
}
