package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/application"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/models"
	"github.com/shopfleet/order-system/shared/saga"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder  *application.CreateOrder
	addOrderItem *application.AddOrderItem
	getOrder     *application.GetOrder
	sagas        saga.Store
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	addOrderItem *application.AddOrderItem,
	getOrder *application.GetOrder,
	sagas saga.Store,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:  createOrder,
		addOrderItem: addOrderItem,
		getOrder:     getOrder,
		sagas:        sagas,
	}
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// AddOrderItem handles requests to add an item to a pending order
func (h *OrderHandlers) AddOrderItem(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	var cmd application.AddOrderItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.OrderID = orderID

	response, err := h.addOrderItem.Execute(r.Context(), &cmd)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// orderResponse is the read model returned by GetOrder.
type orderResponse struct {
	OrderID    string              `json:"order_id"`
	CustomerID string              `json:"customer_id"`
	Status     string              `json:"status"`
	Items      []orderItemResponse `json:"items"`
	Subtotal   models.Money        `json:"subtotal"`
	Tax        models.Money        `json:"tax"`
	GrandTotal models.Money        `json:"grand_total"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	order, err := h.getOrder.Execute(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]orderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&orderResponse{
		OrderID:    order.ID.String(),
		CustomerID: order.CustomerID.String(),
		Status:     string(order.Status),
		Items:      items,
		Subtotal:   order.Subtotal,
		Tax:        order.Tax,
		GrandTotal: order.GrandTotal,
		CreatedAt:  order.Timestamps.CreatedAt,
		UpdatedAt:  order.Timestamps.UpdatedAt,
	})
}

// sagaResponse is the read model returned by GetSaga.
type sagaResponse struct {
	CorrelationID          string       `json:"correlation_id"`
	State                  string       `json:"state"`
	CustomerID             string       `json:"customer_id"`
	Total                  models.Money `json:"total"`
	InventoryReservationID string       `json:"inventory_reservation_id,omitempty"`
	PaymentID              string       `json:"payment_id,omitempty"`
	ShipmentID             string       `json:"shipment_id,omitempty"`
	RetryCount             int          `json:"retry_count"`
	LastError              string       `json:"last_error,omitempty"`
	UpdatedAt              time.Time    `json:"updated_at"`
	Version                int          `json:"version"`
}

// GetSaga returns the fulfillment saga instance for an order
func (h *OrderHandlers) GetSaga(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "id")
	if correlationID == "" {
		http.Error(w, "Correlation ID is required", http.StatusBadRequest)
		return
	}

	instance, err := h.sagas.Load(r.Context(), models.ID(correlationID))
	if err != nil {
		if errors.Is(err, saga.ErrNotFound) {
			http.Error(w, "saga not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&sagaResponse{
		CorrelationID:          instance.CorrelationID.String(),
		State:                  string(instance.State),
		CustomerID:             instance.CustomerID.String(),
		Total:                  instance.Total,
		InventoryReservationID: instance.InventoryReservationID,
		PaymentID:              instance.PaymentID,
		ShipmentID:             instance.ShipmentID,
		RetryCount:             instance.RetryCount,
		LastError:              instance.LastError,
		UpdatedAt:              instance.Timestamps.UpdatedAt,
		Version:                instance.Version.Value,
	})
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/items", h.AddOrderItem)
	})
	r.Get("/sagas/{id}", h.GetSaga)
}
