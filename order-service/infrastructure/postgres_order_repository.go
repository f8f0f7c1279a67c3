package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/order-service/domain"
	"github.com/shopfleet/order-system/shared/models"
)

// PostgresOrderRepository implements domain.OrderRepository. Orders and
// their line items live in two tables; items are replaced wholesale on
// update inside the same transaction as the CAS write on the order row.
type PostgresOrderRepository struct {
	db *sqlx.DB
}

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// NewPostgresOrderRepository creates a new PostgresOrderRepository.
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order row.
type postgresOrder struct {
	ID             string    `db:"id"`
	CustomerID     string    `db:"customer_id"`
	Status         string    `db:"status"`
	SubtotalAmount int64     `db:"subtotal_amount"`
	TaxAmount      int64     `db:"tax_amount"`
	TotalAmount    int64     `db:"total_amount"`
	Currency       string    `db:"currency"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Version        int       `db:"version"`
}

// postgresOrderItem represents an order line item row.
type postgresOrderItem struct {
	OrderID         string `db:"order_id"`
	ProductID       string `db:"product_id"`
	Name            string `db:"name"`
	Quantity        int    `db:"quantity"`
	UnitPriceAmount int64  `db:"unit_price_amount"`
	Currency        string `db:"currency"`
	Position        int    `db:"position"`
}

// Save persists the order. Version 1 inserts; anything later is a
// compare-and-swap against the previous version and returns
// domain.ErrConcurrentUpdate when another writer got there first.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	row := toPostgresOrder(order)

	if order.Version.Value == 1 {
		query := `
			INSERT INTO orders (
				id, customer_id, status, subtotal_amount, tax_amount,
				total_amount, currency, created_at, updated_at, version
			) VALUES (
				:id, :customer_id, :status, :subtotal_amount, :tax_amount,
				:total_amount, :currency, :created_at, :updated_at, :version
			)`

		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return domain.ErrConcurrentUpdate
			}
			return errors.Wrap(err, "failed to insert order")
		}
	} else {
		query := `
			UPDATE orders
			SET status = :status,
				subtotal_amount = :subtotal_amount,
				tax_amount = :tax_amount,
				total_amount = :total_amount,
				currency = :currency,
				updated_at = :updated_at,
				version = :version
			WHERE id = :id AND version = :old_version`

		result, err := tx.NamedExecContext(ctx, query, map[string]interface{}{
			"id":              row.ID,
			"status":          row.Status,
			"subtotal_amount": row.SubtotalAmount,
			"tax_amount":      row.TaxAmount,
			"total_amount":    row.TotalAmount,
			"currency":        row.Currency,
			"updated_at":      row.UpdatedAt,
			"version":         row.Version,
			"old_version":     row.Version - 1,
		})
		if err != nil {
			return errors.Wrap(err, "failed to update order")
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "failed to read rows affected")
		}
		if affected == 0 {
			return domain.ErrConcurrentUpdate
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, row.ID); err != nil {
			return errors.Wrap(err, "failed to clear order items")
		}
	}

	itemQuery := `
		INSERT INTO order_items (
			order_id, product_id, name, quantity, unit_price_amount, currency, position
		) VALUES (
			:order_id, :product_id, :name, :quantity, :unit_price_amount, :currency, :position
		)`

	for i, item := range order.Items {
		itemRow := &postgresOrderItem{
			OrderID:         row.ID,
			ProductID:       item.ProductID.String(),
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitPriceAmount: item.UnitPrice.Amount,
			Currency:        item.UnitPrice.Currency,
			Position:        i,
		}
		if _, err := tx.NamedExecContext(ctx, itemQuery, itemRow); err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit order")
	}

	return nil
}

// FindByID retrieves an order with its line items.
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, status, subtotal_amount, tax_amount,
			   total_amount, currency, created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	var row postgresOrder
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "failed to load order")
	}

	itemQuery := `
		SELECT order_id, product_id, name, quantity, unit_price_amount, currency, position
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`

	var itemRows []postgresOrderItem
	if err := r.db.SelectContext(ctx, &itemRows, itemQuery, id.String()); err != nil {
		return nil, errors.Wrap(err, "failed to load order items")
	}

	return toDomainOrder(&row, itemRows), nil
}

func toPostgresOrder(order *domain.Order) *postgresOrder {
	return &postgresOrder{
		ID:             order.ID.String(),
		CustomerID:     order.CustomerID.String(),
		Status:         string(order.Status),
		SubtotalAmount: order.Subtotal.Amount,
		TaxAmount:      order.Tax.Amount,
		TotalAmount:    order.GrandTotal.Amount,
		Currency:       order.GrandTotal.Currency,
		CreatedAt:      order.Timestamps.CreatedAt,
		UpdatedAt:      order.Timestamps.UpdatedAt,
		Version:        order.Version.Value,
	}
}

func toDomainOrder(row *postgresOrder, itemRows []postgresOrderItem) *domain.Order {
	items := make([]domain.OrderItem, len(itemRows))
	for i, item := range itemRows {
		items[i] = domain.OrderItem{
			ProductID: models.ID(item.ProductID),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: models.NewMoney(item.UnitPriceAmount, item.Currency),
		}
	}

	return &domain.Order{
		ID:         models.ID(row.ID),
		CustomerID: models.ID(row.CustomerID),
		Items:      items,
		Status:     domain.OrderStatus(row.Status),
		Subtotal:   models.NewMoney(row.SubtotalAmount, row.Currency),
		Tax:        models.NewMoney(row.TaxAmount, row.Currency),
		GrandTotal: models.NewMoney(row.TotalAmount, row.Currency),
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}
}
