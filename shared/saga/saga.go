package saga

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/models"
)

var (
	// ErrNotFound is returned when no instance exists for a correlation id.
	ErrNotFound = errors.New("saga instance not found")

	// ErrVersionConflict is returned when a Save carries a stale version.
	// The caller must not retry in place; the message is redelivered and
	// the transition re-runs against the freshly loaded instance.
	ErrVersionConflict = errors.New("saga instance version conflict")
)

// State names a position in a saga's lifecycle.
type State string

// StateInitial is the virtual state before an instance exists. Only the
// definition's start transition may leave it.
const StateInitial State = ""

// Instance is the durable record of one long-running transaction, keyed
// by correlation id. Fields other than State, RetryCount and LastError
// are written once by the transition that learns them and never cleared.
type Instance struct {
	CorrelationID models.ID
	State         State
	CustomerID    models.ID
	Total         models.Money

	// Identifiers of completed compensable steps. An unset field means
	// the step never succeeded and must not be compensated.
	InventoryReservationID string
	PaymentID              string
	ShipmentID             string

	RetryCount int
	LastError  string

	Timestamps models.Timestamps
	Version    models.Version
}

// NewInstance creates an in-memory instance for a correlation id. It is
// not persisted until the start transition commits.
func NewInstance(correlationID models.ID) *Instance {
	return &Instance{
		CorrelationID: correlationID,
		State:         StateInitial,
		Timestamps:    models.NewTimestamps(),
		Version:       models.Version{Value: 0},
	}
}

// Clone returns a copy of the instance.
func (i *Instance) Clone() *Instance {
	clone := *i
	return &clone
}

// Store persists saga instances with optimistic concurrency. Save
// inserts when Version is 1 and otherwise updates only if the stored
// version equals Version-1, returning ErrVersionConflict when another
// writer got there first. At most one in-flight write per correlation
// id can succeed; there is no lock.
type Store interface {
	Load(ctx context.Context, correlationID models.ID) (*Instance, error)
	Save(ctx context.Context, instance *Instance) error
	ListStalled(ctx context.Context, olderThan time.Time, exclude ...State) ([]*Instance, error)
}
