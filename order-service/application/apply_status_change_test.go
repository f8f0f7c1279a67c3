package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/order-service/mocks"
	"github.com/shopfleet/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingOrder(t *testing.T) *domain.Order {
	t.Helper()

	order, err := domain.CreateOrder(models.GenerateUUID(), []domain.OrderItem{
		{ProductID: models.GenerateUUID(), Name: "widget", Quantity: 1, UnitPrice: models.NewMoney(5000, "USD")},
	}, nil)
	require.NoError(t, err)
	order.ClearEvents()
	return order
}

func TestApplyStatusChange_Execute(t *testing.T) {
	order := pendingOrder(t)
	orderID := order.ID.String()

	tests := []struct {
		name          string
		command       *ApplyStatusChangeCommand
		setupMocks    func(*mocks.MockOrderRepository)
		expectedError string
	}{
		{
			name:    "applies shipped status",
			command: &ApplyStatusChangeCommand{OrderID: orderID, Status: "shipped"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).
					Return(pendingOrder(t), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).
					Run(func(ctx context.Context, saved *domain.Order) {
						assert.Equal(t, domain.OrderStatusShipped, saved.Status)
					}).
					Return(nil).Once()
			},
		},
		{
			name:    "applies cancellation with reason",
			command: &ApplyStatusChangeCommand{OrderID: orderID, Status: "canceled", Reason: "payment failed"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).
					Return(pendingOrder(t), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).
					Run(func(ctx context.Context, saved *domain.Order) {
						assert.Equal(t, domain.OrderStatusCanceled, saved.Status)
					}).
					Return(nil).Once()
			},
		},
		{
			name:    "stale broadcast is acknowledged without a save",
			command: &ApplyStatusChangeCommand{OrderID: orderID, Status: "paid"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				stale := pendingOrder(t)
				require.NoError(t, stale.ApplyStatus(domain.OrderStatusShipped, ""))
				stale.ClearEvents()
				repo.EXPECT().FindByID(mock.Anything, order.ID).
					Return(stale, nil).Once()
			},
		},
		{
			name:    "order not found",
			command: &ApplyStatusChangeCommand{OrderID: orderID, Status: "shipped"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).
					Return(nil, domain.ErrOrderNotFound).Once()
			},
			expectedError: "failed to find order",
		},
		{
			name:    "lost concurrency race is returned for redelivery",
			command: &ApplyStatusChangeCommand{OrderID: orderID, Status: "shipped"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).
					Return(pendingOrder(t), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).
					Return(domain.ErrConcurrentUpdate).Once()
			},
			expectedError: "failed to save order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockOrderRepository(t)
			tt.setupMocks(mockRepo)

			useCase := NewApplyStatusChange(mockRepo)

			err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddOrderItem_Execute(t *testing.T) {
	order := pendingOrder(t)
	orderID := order.ID.String()
	validProductID := "550e8400-e29b-41d4-a716-446655440020"

	t.Run("adds item and saves", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockRepo.EXPECT().FindByID(mock.Anything, order.ID).
			Return(pendingOrder(t), nil).Once()
		mockRepo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).
			Run(func(ctx context.Context, saved *domain.Order) {
				assert.Len(t, saved.Items, 2)
				assert.Equal(t, 2, saved.Version.Value)
			}).
			Return(nil).Once()

		useCase := NewAddOrderItem(mockRepo)

		result, err := useCase.Execute(context.Background(), &AddOrderItemCommand{
			OrderID:   orderID,
			ProductID: validProductID,
			Name:      "gadget",
			Quantity:  1,
			UnitPrice: 2000,
			Currency:  "USD",
		})
		require.NoError(t, err)
		// 5000 + 2000 subtotal plus 10 percent tax.
		assert.Equal(t, models.NewMoney(7700, "USD"), result.GrandTotal)
	})

	t.Run("rejects items on a non-pending order", func(t *testing.T) {
		shipped := pendingOrder(t)
		require.NoError(t, shipped.ApplyStatus(domain.OrderStatusShipped, ""))
		shipped.ClearEvents()

		mockRepo := mocks.NewMockOrderRepository(t)
		mockRepo.EXPECT().FindByID(mock.Anything, order.ID).
			Return(shipped, nil).Once()

		useCase := NewAddOrderItem(mockRepo)

		_, err := useCase.Execute(context.Background(), &AddOrderItemCommand{
			OrderID:   orderID,
			ProductID: validProductID,
			Name:      "gadget",
			Quantity:  1,
			UnitPrice: 2000,
			Currency:  "USD",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot add items")
	})

	t.Run("unknown order", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockRepo.EXPECT().FindByID(mock.Anything, order.ID).
			Return(nil, domain.ErrOrderNotFound).Once()

		useCase := NewAddOrderItem(mockRepo)

		_, err := useCase.Execute(context.Background(), &AddOrderItemCommand{
			OrderID:   orderID,
			ProductID: validProductID,
			Name:      "gadget",
			Quantity:  1,
			UnitPrice: 2000,
			Currency:  "USD",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find order")
	})
}

func TestGetOrder_Execute(t *testing.T) {
	order := pendingOrder(t)

	t.Run("returns the order", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockRepo.EXPECT().FindByID(mock.Anything, order.ID).
			Return(order, nil).Once()

		useCase := NewGetOrder(mockRepo)

		got, err := useCase.Execute(context.Background(), order.ID.String())
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockRepo.EXPECT().FindByID(mock.Anything, order.ID).
			Return(nil, errors.New("database error")).Once()

		useCase := NewGetOrder(mockRepo)

		_, err := useCase.Execute(context.Background(), order.ID.String())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find order")
	})
}
