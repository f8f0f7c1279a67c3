package fulfillment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/saga"
)

// Name identifies the order fulfillment saga in logs and metrics.
const Name = "order-fulfillment"

// Saga states. StateInitial is inherited from the engine; Cancelled and
// Completed are terminal.
const (
	StateReservingInventory saga.State = "reserving_inventory"
	StateProcessingPayment  saga.State = "processing_payment"
	StateCreatingShipment   saga.State = "creating_shipment"
	StateShipped            saga.State = "shipped"
	StateCompleted          saga.State = "completed"
	StateCancelled          saga.State = "cancelled"
)

// NewDefinition builds the fulfillment transition table.
//
//	(initial)           OrderCreated              -> ReservingInventory
//	ReservingInventory  InventoryReserved         -> ProcessingPayment
//	ReservingInventory  InventoryReservationFailed-> Cancelled
//	ProcessingPayment   PaymentProcessed          -> CreatingShipment
//	ProcessingPayment   PaymentFailed             -> Cancelled
//	CreatingShipment    ShipmentCreated           -> Shipped
//	CreatingShipment    ShipmentFailed            -> Cancelled
//	Shipped             OrderDelivered            -> Completed
//
// Compensations run in reverse order of forward completion (refund
// before release) and are skipped for steps that never completed.
func NewDefinition() *saga.Definition {
	def := saga.NewDefinition(Name, messaging.TopicOrderCreated)

	def.On(saga.StateInitial, messaging.TopicOrderCreated, saga.Transition{
		To:     StateReservingInventory,
		Action: startFulfillment,
	})

	def.On(StateReservingInventory, messaging.TopicInventoryReserved, saga.Transition{
		To:     StateProcessingPayment,
		Action: requestPayment,
	})

	def.On(StateReservingInventory, messaging.TopicInventoryReservationFailed, saga.Transition{
		To:       StateCancelled,
		Terminal: true,
		Action:   cancelForInventory,
	})

	def.On(StateProcessingPayment, messaging.TopicPaymentProcessed, saga.Transition{
		To:     StateCreatingShipment,
		Action: requestShipment,
	})

	def.On(StateProcessingPayment, messaging.TopicPaymentFailed, saga.Transition{
		To:       StateCancelled,
		Terminal: true,
		Action:   cancelForPayment,
	})

	def.On(StateCreatingShipment, messaging.TopicShipmentCreated, saga.Transition{
		To:     StateShipped,
		Action: markShipped,
	})

	def.On(StateCreatingShipment, messaging.TopicShipmentFailed, saga.Transition{
		To:       StateCancelled,
		Terminal: true,
		Action:   cancelForShipping,
	})

	def.On(StateShipped, messaging.TopicOrderDelivered, saga.Transition{
		To:       StateCompleted,
		Terminal: true,
		Action:   complete,
	})

	return def
}

func startFulfillment(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.OrderCreatedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal order created payload")
	}

	instance.CustomerID = data.CustomerID
	instance.Total = data.Total

	reserve := messaging.NewCommand(instance.CorrelationID, messaging.TopicReserveInventory, messaging.ReserveInventoryData{
		OrderID: data.OrderID,
		Items:   data.Items,
	})

	return []*messaging.Message{reserve}, nil
}

func requestPayment(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.InventoryReservedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal inventory reserved payload")
	}

	instance.InventoryReservationID = data.ReservationID

	process := messaging.NewCommand(instance.CorrelationID, messaging.TopicProcessPayment, messaging.ProcessPaymentData{
		OrderID:    instance.CorrelationID,
		CustomerID: instance.CustomerID,
		Amount:     instance.Total,
	})

	return []*messaging.Message{process}, nil
}

func cancelForInventory(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.InventoryReservationFailedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal reservation failed payload")
	}

	instance.LastError = data.Reason

	// Nothing was reserved or charged yet, so there is nothing to
	// compensate; only the status broadcast goes out.
	return []*messaging.Message{statusChanged(instance, domain.OrderStatusCanceled, "inventory not available")}, nil
}

func requestShipment(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.PaymentProcessedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal payment processed payload")
	}

	instance.PaymentID = data.PaymentID

	create := messaging.NewCommand(instance.CorrelationID, messaging.TopicCreateShipment, messaging.CreateShipmentData{
		OrderID:    instance.CorrelationID,
		CustomerID: instance.CustomerID,
	})

	return []*messaging.Message{create}, nil
}

func cancelForPayment(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.PaymentFailedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal payment failed payload")
	}

	instance.LastError = data.Reason

	outgoing := compensations(instance)
	outgoing = append(outgoing, statusChanged(instance, domain.OrderStatusCanceled, "payment failed"))
	return outgoing, nil
}

func markShipped(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.ShipmentCreatedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal shipment created payload")
	}

	instance.ShipmentID = data.ShipmentID

	return []*messaging.Message{statusChanged(instance, domain.OrderStatusShipped, "")}, nil
}

func cancelForShipping(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	var data messaging.ShipmentFailedData
	if err := msg.UnmarshalPayload(&data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal shipment failed payload")
	}

	instance.LastError = data.Reason

	outgoing := compensations(instance)
	outgoing = append(outgoing, statusChanged(instance, domain.OrderStatusCanceled, "shipping failed"))
	return outgoing, nil
}

func complete(ctx context.Context, instance *saga.Instance, msg *messaging.Message) ([]*messaging.Message, error) {
	return []*messaging.Message{statusChanged(instance, domain.OrderStatusCompleted, "")}, nil
}

// compensations undoes completed forward steps in reverse order of
// completion: payment was completed after the reservation, so the
// refund goes out before the release. Steps whose identifier was never
// recorded are skipped.
func compensations(instance *saga.Instance) []*messaging.Message {
	var msgs []*messaging.Message

	if instance.PaymentID != "" {
		msgs = append(msgs, messaging.NewCommand(instance.CorrelationID, messaging.TopicRefundPayment, messaging.RefundPaymentData{
			OrderID:   instance.CorrelationID,
			PaymentID: instance.PaymentID,
			Amount:    instance.Total,
		}))
	}

	if instance.InventoryReservationID != "" {
		msgs = append(msgs, messaging.NewCommand(instance.CorrelationID, messaging.TopicReleaseInventory, messaging.ReleaseInventoryData{
			OrderID:       instance.CorrelationID,
			ReservationID: instance.InventoryReservationID,
		}))
	}

	return msgs
}

func statusChanged(instance *saga.Instance, status domain.OrderStatus, reason string) *messaging.Message {
	return messaging.NewEvent(instance.CorrelationID, messaging.TopicOrderStatusChanged, messaging.OrderStatusChangedData{
		OrderID: instance.CorrelationID,
		Status:  string(status),
		Reason:  reason,
	})
}
