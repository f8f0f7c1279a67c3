package domain

import (
	"testing"

	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(cents int64, qty int) OrderItem {
	return OrderItem{
		ProductID: models.GenerateUUID(),
		Name:      "widget",
		Quantity:  qty,
		UnitPrice: models.NewMoney(cents, "USD"),
	}
}

func TestCreateOrder(t *testing.T) {
	customerID := models.GenerateUUID()

	tests := []struct {
		name          string
		customerID    models.ID
		items         []OrderItem
		expectedError string
	}{
		{
			name:       "valid order",
			customerID: customerID,
			items:      []OrderItem{testItem(5000, 2)},
		},
		{
			name:          "missing customer",
			customerID:    "",
			items:         []OrderItem{testItem(5000, 1)},
			expectedError: "customer ID is required",
		},
		{
			name:          "no items",
			customerID:    customerID,
			items:         nil,
			expectedError: "order must have at least one item",
		},
		{
			name:          "zero quantity",
			customerID:    customerID,
			items:         []OrderItem{testItem(5000, 0)},
			expectedError: "item quantity must be positive",
		},
		{
			name:       "mixed currencies",
			customerID: customerID,
			items: []OrderItem{
				testItem(5000, 1),
				{ProductID: models.GenerateUUID(), Name: "gadget", Quantity: 1, UnitPrice: models.NewMoney(300, "EUR")},
			},
			expectedError: "all order items must share one currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := CreateOrder(tt.customerID, tt.items, nil)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, OrderStatusPending, order.Status)
			assert.False(t, order.ID.IsZero())
			assert.Equal(t, 1, order.Version.Value)
		})
	}
}

func TestCreateOrder_TotalsAndEvent(t *testing.T) {
	order, err := CreateOrder(models.GenerateUUID(), []OrderItem{
		testItem(5000, 2), // 10000
		testItem(300, 1),  // 300
	}, nil)
	require.NoError(t, err)

	// Default tax policy is a flat 10 percent.
	assert.Equal(t, models.NewMoney(10300, "USD"), order.Subtotal)
	assert.Equal(t, models.NewMoney(1030, "USD"), order.Tax)
	assert.Equal(t, models.NewMoney(11330, "USD"), order.GrandTotal)

	events := order.Events()
	require.Len(t, events, 1)
	assert.Equal(t, messaging.TopicOrderCreated, events[0].Topic)
	assert.Equal(t, order.ID, events[0].CorrelationID)

	var data messaging.OrderCreatedData
	require.NoError(t, events[0].UnmarshalPayload(&data))
	assert.Equal(t, order.GrandTotal, data.Total)
	assert.Len(t, data.Items, 2)
}

func TestOrder_AddItem(t *testing.T) {
	order, err := CreateOrder(models.GenerateUUID(), []OrderItem{testItem(5000, 1)}, nil)
	require.NoError(t, err)

	require.NoError(t, order.AddItem(testItem(1000, 3)))
	assert.Equal(t, models.NewMoney(8000, "USD"), order.Subtotal)
	assert.Equal(t, 2, order.Version.Value)

	// Items are frozen once the order leaves Pending.
	require.NoError(t, order.ApplyStatus(OrderStatusPaid, ""))
	err = order.AddItem(testItem(1000, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot add items")
}

func TestOrder_ApplyStatus(t *testing.T) {
	newOrder := func(t *testing.T) *Order {
		order, err := CreateOrder(models.GenerateUUID(), []OrderItem{testItem(5000, 1)}, nil)
		require.NoError(t, err)
		order.ClearEvents()
		return order
	}

	t.Run("forward path", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.ApplyStatus(OrderStatusShipped, ""))
		require.NoError(t, order.ApplyStatus(OrderStatusCompleted, ""))
		assert.Equal(t, OrderStatusCompleted, order.Status)

		events := order.Events()
		require.Len(t, events, 2)
		assert.Equal(t, messaging.TopicOrderStatusChanged, events[0].Topic)
	})

	t.Run("no backwards transition", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.ApplyStatus(OrderStatusShipped, ""))
		err := order.ApplyStatus(OrderStatusPaid, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot move order")
	})

	t.Run("cancel from any non-terminal status", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.ApplyStatus(OrderStatusShipped, ""))
		require.NoError(t, order.ApplyStatus(OrderStatusCanceled, "shipping failed"))
		assert.Equal(t, OrderStatusCanceled, order.Status)
	})

	t.Run("terminal statuses are final", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.ApplyStatus(OrderStatusCanceled, "payment failed"))
		err := order.ApplyStatus(OrderStatusShipped, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already canceled")

		completed := newOrder(t)
		require.NoError(t, completed.ApplyStatus(OrderStatusCompleted, ""))
		assert.Error(t, completed.ApplyStatus(OrderStatusCanceled, ""))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		order := newOrder(t)
		err := order.ApplyStatus("refunded", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown order status")
	})
}
