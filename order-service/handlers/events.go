package handlers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/application"
	"github.com/shopfleet/order-system/shared/messaging"
)

// OrderEventHandlers is the single handler bound to the order service
// queue. Saga lifecycle topics go to the fulfillment engine; the
// engine's own OrderStatusChanged broadcast comes back here and is
// applied to the order record. Everything else is acknowledged and
// ignored.
type OrderEventHandlers struct {
	engine            messaging.Handler
	applyStatusChange *application.ApplyStatusChange
}

// NewOrderEventHandlers creates new order event handlers.
func NewOrderEventHandlers(engine messaging.Handler, applyStatusChange *application.ApplyStatusChange) *OrderEventHandlers {
	return &OrderEventHandlers{
		engine:            engine,
		applyStatusChange: applyStatusChange,
	}
}

// HandlerID returns the unique identifier for this event handler.
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements the messaging.Handler interface.
func (h *OrderEventHandlers) Handle(ctx context.Context, msg *messaging.Message) error {
	switch msg.Topic {
	case messaging.TopicOrderCreated,
		messaging.TopicInventoryReserved,
		messaging.TopicInventoryReservationFailed,
		messaging.TopicPaymentProcessed,
		messaging.TopicPaymentFailed,
		messaging.TopicShipmentCreated,
		messaging.TopicShipmentFailed,
		messaging.TopicOrderDelivered:
		return h.engine.Handle(ctx, msg)
	case messaging.TopicOrderStatusChanged:
		return h.HandleOrderStatusChanged(ctx, msg)
	default:
		// Unknown topic, ignore
		return nil
	}
}

// HandleOrderStatusChanged applies a saga status broadcast to the
// stored order.
func (h *OrderEventHandlers) HandleOrderStatusChanged(ctx context.Context, msg *messaging.Message) error {
	var data messaging.OrderStatusChangedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse order status changed data")
	}

	cmd := &application.ApplyStatusChangeCommand{
		OrderID: data.OrderID.String(),
		Status:  data.Status,
		Reason:  data.Reason,
	}

	return h.applyStatusChange.Execute(ctx, cmd)
}
