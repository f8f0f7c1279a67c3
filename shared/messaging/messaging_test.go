package messaging

import (
	"encoding/json"
	"testing"

	"github.com/shopfleet/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		pattern Topic
		matches bool
	}{
		{"exact match", "order.created", "order.created", true},
		{"exact mismatch", "order.created", "order.delivered", false},
		{"single wildcard", "order.created", "order.*", true},
		{"single wildcard mismatch", "payment.processed", "order.*", false},
		{"wildcard middle segment", "inventory.reservation.failed", "inventory.*.failed", true},
		{"wildcard wrong length", "order.created", "order.*.failed", false},
		{"hash matches everything", "order.status.changed", "#", true},
		{"hash prefix", "inventory.reserved", "inventory.#", true},
		{"hash suffix", "payment.failed", "#.failed", true},
		{"hash contains", "order.status.changed", "#status#", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestMessage_UnmarshalPayload(t *testing.T) {
	orderID := models.GenerateUUID()
	customerID := models.GenerateUUID()

	payload := OrderCreatedData{
		OrderID:    orderID,
		CustomerID: customerID,
		Total:      models.NewMoney(11000, "USD"),
		Items: []OrderItemData{
			{ProductID: models.GenerateUUID(), Name: "widget", Quantity: 2, UnitPrice: models.NewMoney(5000, "USD")},
		},
	}

	t.Run("typed payload from in-process delivery", func(t *testing.T) {
		msg := NewEvent(orderID, TopicOrderCreated, payload)

		var got OrderCreatedData
		require.NoError(t, msg.UnmarshalPayload(&got))
		assert.Equal(t, payload, got)
	})

	t.Run("raw payload off the wire", func(t *testing.T) {
		msg := NewEvent(orderID, TopicOrderCreated, payload)
		wire, err := msg.ToJSON()
		require.NoError(t, err)

		decoded, err := FromJSON(wire)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, decoded.ID)
		assert.Equal(t, msg.CorrelationID, decoded.CorrelationID)
		assert.Equal(t, TopicOrderCreated, decoded.Topic)
		assert.Equal(t, KindEvent, decoded.Kind)

		var got OrderCreatedData
		require.NoError(t, decoded.UnmarshalPayload(&got))
		assert.Equal(t, payload, got)
	})

	t.Run("json.RawMessage payload", func(t *testing.T) {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		msg := NewEvent(orderID, TopicOrderCreated, json.RawMessage(raw))

		var got OrderCreatedData
		require.NoError(t, msg.UnmarshalPayload(&got))
		assert.Equal(t, payload, got)
	})

	t.Run("non-pointer receiver", func(t *testing.T) {
		msg := NewEvent(orderID, TopicOrderCreated, payload)

		var got OrderCreatedData
		assert.ErrorIs(t, msg.UnmarshalPayload(got), ErrInvalidReceiver)
	})
}

func TestNewCommand(t *testing.T) {
	correlationID := models.GenerateUUID()
	cmd := NewCommand(correlationID, TopicReserveInventory, ReserveInventoryData{OrderID: correlationID})

	assert.Equal(t, KindCommand, cmd.Kind)
	assert.Equal(t, correlationID, cmd.CorrelationID)
	assert.False(t, cmd.ID.IsZero())
	assert.NotNil(t, cmd.Metadata)
}

func TestMessage_Clone(t *testing.T) {
	msg := NewEvent(models.GenerateUUID(), TopicOrderCreated, nil)
	msg.WithMetadata("origin", "test")

	clone := msg.Clone()
	clone.Metadata.Set("origin", "clone")

	origin, _ := msg.Metadata.Get("origin")
	assert.Equal(t, "test", origin, "clone metadata must not alias the original")
	assert.Equal(t, msg.ID, clone.ID)
}
