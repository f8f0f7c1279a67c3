package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/models"
	"github.com/shopfleet/order-system/shared/saga"
)

// PostgresSagaStore implements saga.Store using PostgreSQL. One row per
// correlation id; version is the optimistic-concurrency column.
type PostgresSagaStore struct {
	db *sqlx.DB
}

var _ saga.Store = (*PostgresSagaStore)(nil)

// NewPostgresSagaStore creates a new PostgresSagaStore.
func NewPostgresSagaStore(db *sqlx.DB) *PostgresSagaStore {
	return &PostgresSagaStore{db: db}
}

// postgresSagaInstance represents a saga instance row.
type postgresSagaInstance struct {
	CorrelationID          string    `db:"correlation_id"`
	State                  string    `db:"state"`
	CustomerID             string    `db:"customer_id"`
	TotalAmount            int64     `db:"total_amount"`
	TotalCurrency          string    `db:"total_currency"`
	InventoryReservationID string    `db:"inventory_reservation_id"`
	PaymentID              string    `db:"payment_id"`
	ShipmentID             string    `db:"shipment_id"`
	RetryCount             int       `db:"retry_count"`
	LastError              string    `db:"last_error"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
	Version                int       `db:"version"`
}

// Load retrieves the instance for a correlation id.
func (s *PostgresSagaStore) Load(ctx context.Context, correlationID models.ID) (*saga.Instance, error) {
	query := `
		SELECT correlation_id, state, customer_id, total_amount, total_currency,
			   inventory_reservation_id, payment_id, shipment_id,
			   retry_count, last_error, created_at, updated_at, version
		FROM saga_instances
		WHERE correlation_id = $1`

	var row postgresSagaInstance
	err := s.db.GetContext(ctx, &row, query, correlationID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, saga.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load saga instance")
	}

	return s.toDomain(&row), nil
}

// Save inserts at version 1, otherwise compare-and-swaps against the
// version the caller read. Either losing race surfaces as
// saga.ErrVersionConflict so the inbound message is requeued.
func (s *PostgresSagaStore) Save(ctx context.Context, instance *saga.Instance) error {
	row := s.toPostgres(instance)

	if instance.Version.Value == 1 {
		query := `
			INSERT INTO saga_instances (
				correlation_id, state, customer_id, total_amount, total_currency,
				inventory_reservation_id, payment_id, shipment_id,
				retry_count, last_error, created_at, updated_at, version
			) VALUES (
				:correlation_id, :state, :customer_id, :total_amount, :total_currency,
				:inventory_reservation_id, :payment_id, :shipment_id,
				:retry_count, :last_error, :created_at, :updated_at, :version
			)`

		_, err := s.db.NamedExecContext(ctx, query, row)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return saga.ErrVersionConflict
			}
			return errors.Wrap(err, "failed to insert saga instance")
		}
		return nil
	}

	query := `
		UPDATE saga_instances
		SET state = :state,
			customer_id = :customer_id,
			total_amount = :total_amount,
			total_currency = :total_currency,
			inventory_reservation_id = :inventory_reservation_id,
			payment_id = :payment_id,
			shipment_id = :shipment_id,
			retry_count = :retry_count,
			last_error = :last_error,
			updated_at = :updated_at,
			version = :version
		WHERE correlation_id = :correlation_id AND version = :old_version`

	result, err := s.db.NamedExecContext(ctx, query, map[string]interface{}{
		"correlation_id":           row.CorrelationID,
		"state":                    row.State,
		"customer_id":              row.CustomerID,
		"total_amount":             row.TotalAmount,
		"total_currency":           row.TotalCurrency,
		"inventory_reservation_id": row.InventoryReservationID,
		"payment_id":               row.PaymentID,
		"shipment_id":              row.ShipmentID,
		"retry_count":              row.RetryCount,
		"last_error":               row.LastError,
		"updated_at":               row.UpdatedAt,
		"version":                  row.Version,
		"old_version":              row.Version - 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to update saga instance")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return saga.ErrVersionConflict
	}

	return nil
}

// ListStalled returns instances untouched since olderThan, excluding
// the given (terminal) states.
func (s *PostgresSagaStore) ListStalled(ctx context.Context, olderThan time.Time, exclude ...saga.State) ([]*saga.Instance, error) {
	query := `
		SELECT correlation_id, state, customer_id, total_amount, total_currency,
			   inventory_reservation_id, payment_id, shipment_id,
			   retry_count, last_error, created_at, updated_at, version
		FROM saga_instances
		WHERE updated_at < ?`
	args := []interface{}{olderThan}

	if len(exclude) > 0 {
		states := make([]string, len(exclude))
		for i, state := range exclude {
			states[i] = string(state)
		}
		query += ` AND state NOT IN (?)`

		var err error
		query, args, err = sqlx.In(query, olderThan, states)
		if err != nil {
			return nil, errors.Wrap(err, "failed to expand state list")
		}
	}

	query = s.db.Rebind(query)

	var rows []postgresSagaInstance
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list stalled saga instances")
	}

	instances := make([]*saga.Instance, len(rows))
	for i := range rows {
		instances[i] = s.toDomain(&rows[i])
	}
	return instances, nil
}

func (s *PostgresSagaStore) toPostgres(instance *saga.Instance) *postgresSagaInstance {
	return &postgresSagaInstance{
		CorrelationID:          instance.CorrelationID.String(),
		State:                  string(instance.State),
		CustomerID:             instance.CustomerID.String(),
		TotalAmount:            instance.Total.Amount,
		TotalCurrency:          instance.Total.Currency,
		InventoryReservationID: instance.InventoryReservationID,
		PaymentID:              instance.PaymentID,
		ShipmentID:             instance.ShipmentID,
		RetryCount:             instance.RetryCount,
		LastError:              instance.LastError,
		CreatedAt:              instance.Timestamps.CreatedAt,
		UpdatedAt:              instance.Timestamps.UpdatedAt,
		Version:                instance.Version.Value,
	}
}

func (s *PostgresSagaStore) toDomain(row *postgresSagaInstance) *saga.Instance {
	return &saga.Instance{
		CorrelationID:          models.ID(row.CorrelationID),
		State:                  saga.State(row.State),
		CustomerID:             models.ID(row.CustomerID),
		Total:                  models.NewMoney(row.TotalAmount, row.TotalCurrency),
		InventoryReservationID: row.InventoryReservationID,
		PaymentID:              row.PaymentID,
		ShipmentID:             row.ShipmentID,
		RetryCount:             row.RetryCount,
		LastError:              row.LastError,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}
}
