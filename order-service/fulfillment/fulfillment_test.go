package fulfillment

import (
	"context"
	"testing"

	"github.com/shopfleet/order-system/shared/infrastructure"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/models"
	"github.com/shopfleet/order-system/shared/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sagaWorld wires the engine, an in-memory store and an in-memory bus
// with scripted downstream services, so a whole fulfillment run is
// driven by a single published event.
type sagaWorld struct {
	bus        *infrastructure.MemoryBus
	store      *saga.MemoryStore
	engine     *saga.Engine
	commands   []*messaging.Message
	broadcasts []messaging.OrderStatusChangedData
}

// newSagaWorld builds the world. responses maps each command topic to
// the reply events the fake downstream service publishes; a missing
// entry means the service swallows the command.
func newSagaWorld(t *testing.T, responses map[messaging.Topic]func(*messaging.Message) []*messaging.Message) *sagaWorld {
	t.Helper()

	w := &sagaWorld{
		bus:   infrastructure.NewMemoryBus(3),
		store: saga.NewMemoryStore(),
	}
	w.engine = saga.NewEngine(NewDefinition(), w.store, w.bus, w.bus)

	for _, topic := range []messaging.Topic{
		messaging.TopicOrderCreated,
		messaging.TopicInventoryReserved,
		messaging.TopicInventoryReservationFailed,
		messaging.TopicPaymentProcessed,
		messaging.TopicPaymentFailed,
		messaging.TopicShipmentCreated,
		messaging.TopicShipmentFailed,
		messaging.TopicOrderDelivered,
	} {
		w.bus.Register(topic, w.engine)
	}

	for _, topic := range []messaging.Topic{
		messaging.TopicReserveInventory,
		messaging.TopicReleaseInventory,
		messaging.TopicProcessPayment,
		messaging.TopicRefundPayment,
		messaging.TopicCreateShipment,
	} {
		topic := topic
		w.bus.Register(topic, messaging.NewHandlerFunc("fake-"+topic.String(), func(ctx context.Context, msg *messaging.Message) error {
			w.commands = append(w.commands, msg)
			if respond, ok := responses[topic]; ok {
				if replies := respond(msg); len(replies) > 0 {
					return w.bus.Publish(ctx, replies...)
				}
			}
			return nil
		}))
	}

	w.bus.Register(messaging.TopicOrderStatusChanged, messaging.NewHandlerFunc("status-recorder", func(ctx context.Context, msg *messaging.Message) error {
		var data messaging.OrderStatusChangedData
		if err := msg.UnmarshalPayload(&data); err != nil {
			return err
		}
		w.broadcasts = append(w.broadcasts, data)
		return nil
	}))

	return w
}

func (w *sagaWorld) commandTopics() []messaging.Topic {
	topics := make([]messaging.Topic, len(w.commands))
	for i, cmd := range w.commands {
		topics[i] = cmd.Topic
	}
	return topics
}

func (w *sagaWorld) statuses() []string {
	statuses := make([]string, len(w.broadcasts))
	for i, b := range w.broadcasts {
		statuses[i] = b.Status
	}
	return statuses
}

func orderCreated(orderID, customerID models.ID) *messaging.Message {
	return messaging.NewEvent(orderID, messaging.TopicOrderCreated, messaging.OrderCreatedData{
		OrderID:    orderID,
		CustomerID: customerID,
		Total:      models.NewMoney(11000, "USD"),
		Items: []messaging.OrderItemData{
			{ProductID: models.GenerateUUID(), Name: "widget", Quantity: 2, UnitPrice: models.NewMoney(5000, "USD")},
		},
	})
}

func reserved(orderID models.ID) func(*messaging.Message) []*messaging.Message {
	return func(msg *messaging.Message) []*messaging.Message {
		return []*messaging.Message{
			messaging.NewEvent(orderID, messaging.TopicInventoryReserved, messaging.InventoryReservedData{
				OrderID:       orderID,
				ReservationID: "res-1",
			}),
		}
	}
}

func paid(orderID models.ID) func(*messaging.Message) []*messaging.Message {
	return func(msg *messaging.Message) []*messaging.Message {
		return []*messaging.Message{
			messaging.NewEvent(orderID, messaging.TopicPaymentProcessed, messaging.PaymentProcessedData{
				OrderID:   orderID,
				PaymentID: "pay-1",
			}),
		}
	}
}

func shipped(orderID models.ID) func(*messaging.Message) []*messaging.Message {
	return func(msg *messaging.Message) []*messaging.Message {
		return []*messaging.Message{
			messaging.NewEvent(orderID, messaging.TopicShipmentCreated, messaging.ShipmentCreatedData{
				OrderID:    orderID,
				ShipmentID: "ship-1",
			}),
		}
	}
}

func TestFulfillment_HappyPath(t *testing.T) {
	ctx := context.Background()
	orderID := models.GenerateUUID()
	customerID := models.GenerateUUID()

	w := newSagaWorld(t, map[messaging.Topic]func(*messaging.Message) []*messaging.Message{
		messaging.TopicReserveInventory: reserved(orderID),
		messaging.TopicProcessPayment:   paid(orderID),
		messaging.TopicCreateShipment:   shipped(orderID),
	})

	require.NoError(t, w.bus.Publish(ctx, orderCreated(orderID, customerID)))

	instance, err := w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateShipped, instance.State)
	assert.Equal(t, "res-1", instance.InventoryReservationID)
	assert.Equal(t, "pay-1", instance.PaymentID)
	assert.Equal(t, "ship-1", instance.ShipmentID)
	assert.Equal(t, customerID, instance.CustomerID)
	assert.Equal(t, models.NewMoney(11000, "USD"), instance.Total)

	require.NoError(t, w.bus.Publish(ctx, messaging.NewEvent(orderID, messaging.TopicOrderDelivered, messaging.OrderDeliveredData{OrderID: orderID})))

	instance, err = w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, instance.State)
	assert.Equal(t, 5, instance.Version.Value)

	assert.Equal(t, []messaging.Topic{
		messaging.TopicReserveInventory,
		messaging.TopicProcessPayment,
		messaging.TopicCreateShipment,
	}, w.commandTopics())
	assert.Equal(t, []string{"shipped", "completed"}, w.statuses())
	assert.Empty(t, w.bus.DeadLetters())
}

func TestFulfillment_InventoryFailureCancelsWithoutCompensation(t *testing.T) {
	ctx := context.Background()
	orderID := models.GenerateUUID()

	w := newSagaWorld(t, map[messaging.Topic]func(*messaging.Message) []*messaging.Message{
		messaging.TopicReserveInventory: func(msg *messaging.Message) []*messaging.Message {
			return []*messaging.Message{
				messaging.NewEvent(orderID, messaging.TopicInventoryReservationFailed, messaging.InventoryReservationFailedData{
					OrderID: orderID,
					Reason:  "out of stock",
				}),
			}
		},
	})

	require.NoError(t, w.bus.Publish(ctx, orderCreated(orderID, models.GenerateUUID())))

	instance, err := w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, instance.State)
	assert.Equal(t, "out of stock", instance.LastError)

	// Nothing was reserved or charged, so no compensation commands.
	assert.Equal(t, []messaging.Topic{messaging.TopicReserveInventory}, w.commandTopics())
	assert.Equal(t, []string{"canceled"}, w.statuses())
	assert.Equal(t, "inventory not available", w.broadcasts[0].Reason)
}

func TestFulfillment_PaymentFailureReleasesInventoryOnly(t *testing.T) {
	ctx := context.Background()
	orderID := models.GenerateUUID()

	w := newSagaWorld(t, map[messaging.Topic]func(*messaging.Message) []*messaging.Message{
		messaging.TopicReserveInventory: reserved(orderID),
		messaging.TopicProcessPayment: func(msg *messaging.Message) []*messaging.Message {
			return []*messaging.Message{
				messaging.NewEvent(orderID, messaging.TopicPaymentFailed, messaging.PaymentFailedData{
					OrderID: orderID,
					Reason:  "card declined",
				}),
			}
		},
	})

	require.NoError(t, w.bus.Publish(ctx, orderCreated(orderID, models.GenerateUUID())))

	instance, err := w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, instance.State)
	assert.Equal(t, "card declined", instance.LastError)
	assert.Empty(t, instance.PaymentID)

	// No payment completed, so no refund; only the release goes out.
	assert.Equal(t, []messaging.Topic{
		messaging.TopicReserveInventory,
		messaging.TopicProcessPayment,
		messaging.TopicReleaseInventory,
	}, w.commandTopics())

	release := w.commands[2]
	var data messaging.ReleaseInventoryData
	require.NoError(t, release.UnmarshalPayload(&data))
	assert.Equal(t, "res-1", data.ReservationID)
}

func TestFulfillment_ShipmentFailureRefundsBeforeRelease(t *testing.T) {
	ctx := context.Background()
	orderID := models.GenerateUUID()

	w := newSagaWorld(t, map[messaging.Topic]func(*messaging.Message) []*messaging.Message{
		messaging.TopicReserveInventory: reserved(orderID),
		messaging.TopicProcessPayment:   paid(orderID),
		messaging.TopicCreateShipment: func(msg *messaging.Message) []*messaging.Message {
			return []*messaging.Message{
				messaging.NewEvent(orderID, messaging.TopicShipmentFailed, messaging.ShipmentFailedData{
					OrderID: orderID,
					Reason:  "no carrier available",
				}),
			}
		},
	})

	require.NoError(t, w.bus.Publish(ctx, orderCreated(orderID, models.GenerateUUID())))

	instance, err := w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, instance.State)
	assert.Equal(t, "no carrier available", instance.LastError)

	// Compensations in reverse order of completion: refund, then release.
	assert.Equal(t, []messaging.Topic{
		messaging.TopicReserveInventory,
		messaging.TopicProcessPayment,
		messaging.TopicCreateShipment,
		messaging.TopicRefundPayment,
		messaging.TopicReleaseInventory,
	}, w.commandTopics())

	var refund messaging.RefundPaymentData
	require.NoError(t, w.commands[3].UnmarshalPayload(&refund))
	assert.Equal(t, "pay-1", refund.PaymentID)
	assert.Equal(t, models.NewMoney(11000, "USD"), refund.Amount)

	assert.Equal(t, []string{"canceled"}, w.statuses())
}

func TestFulfillment_DuplicateEventsAreDiscarded(t *testing.T) {
	ctx := context.Background()
	orderID := models.GenerateUUID()

	w := newSagaWorld(t, map[messaging.Topic]func(*messaging.Message) []*messaging.Message{
		messaging.TopicReserveInventory: reserved(orderID),
		messaging.TopicProcessPayment:   paid(orderID),
		messaging.TopicCreateShipment:   shipped(orderID),
	})

	created := orderCreated(orderID, models.GenerateUUID())
	require.NoError(t, w.bus.Publish(ctx, created))

	instance, err := w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateShipped, instance.State)
	versionBefore := instance.Version.Value
	commandsBefore := len(w.commands)

	// Redeliver the start event and a mid-saga event.
	require.NoError(t, w.bus.Publish(ctx, created))
	require.NoError(t, w.bus.Publish(ctx, messaging.NewEvent(orderID, messaging.TopicInventoryReserved, messaging.InventoryReservedData{
		OrderID:       orderID,
		ReservationID: "res-1",
	})))

	instance, err = w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateShipped, instance.State)
	assert.Equal(t, versionBefore, instance.Version.Value)
	assert.Len(t, w.commands, commandsBefore)
}

func TestFulfillment_TerminatedSagaIgnoresLateEvents(t *testing.T) {
	ctx := context.Background()
	orderID := models.GenerateUUID()

	w := newSagaWorld(t, map[messaging.Topic]func(*messaging.Message) []*messaging.Message{
		messaging.TopicReserveInventory: func(msg *messaging.Message) []*messaging.Message {
			return []*messaging.Message{
				messaging.NewEvent(orderID, messaging.TopicInventoryReservationFailed, messaging.InventoryReservationFailedData{
					OrderID: orderID,
					Reason:  "out of stock",
				}),
			}
		},
	})

	require.NoError(t, w.bus.Publish(ctx, orderCreated(orderID, models.GenerateUUID())))

	// A slow success arriving after cancellation must not resurrect the
	// saga or trigger a payment.
	require.NoError(t, w.bus.Publish(ctx, messaging.NewEvent(orderID, messaging.TopicInventoryReserved, messaging.InventoryReservedData{
		OrderID:       orderID,
		ReservationID: "res-late",
	})))

	instance, err := w.store.Load(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, instance.State)
	assert.Empty(t, instance.InventoryReservationID)
	assert.Equal(t, []messaging.Topic{messaging.TopicReserveInventory}, w.commandTopics())
}

func TestNewDefinition_Shape(t *testing.T) {
	def := NewDefinition()

	assert.Equal(t, Name, def.Name())
	assert.Equal(t, messaging.TopicOrderCreated, def.StartTopic())
	assert.True(t, def.IsTerminal(StateCancelled))
	assert.True(t, def.IsTerminal(StateCompleted))
	assert.False(t, def.IsTerminal(StateShipped))

	_, ok := def.Transition(StateShipped, messaging.TopicOrderDelivered)
	assert.True(t, ok)
	_, ok = def.Transition(StateCompleted, messaging.TopicOrderDelivered)
	assert.False(t, ok)
}
