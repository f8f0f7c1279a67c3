package fulfillment

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/saga"
	"github.com/shopfleet/order-system/shared/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Monitor sweeps the saga store for instances stuck in a non-terminal
// state. Each sweep that finds an instance stalled bumps its RetryCount
// through the usual optimistic save, which also resets its stall clock;
// once RetryCount exceeds maxRetries the monitor publishes the synthetic
// failure event for the stuck state so the regular cancellation
// transition (and its compensations) takes over. The engine remains the
// only component that moves saga state.
type Monitor struct {
	store      saga.Store
	publisher  messaging.Publisher
	timeout    time.Duration
	interval   time.Duration
	maxRetries int
}

// NewMonitor creates a monitor. timeout is how long an instance may sit
// untouched before it counts as stalled; interval is the sweep period.
func NewMonitor(store saga.Store, publisher messaging.Publisher, timeout, interval time.Duration, maxRetries int) *Monitor {
	return &Monitor{
		store:      store,
		publisher:  publisher,
		timeout:    timeout,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

// Run sweeps on every tick until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				log.Printf("fulfillment monitor: sweep failed: %v", err)
			}
		}
	}
}

// Sweep processes all currently stalled instances once and returns how
// many it acted on.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	stalled, err := m.store.ListStalled(ctx, time.Now().Add(-m.timeout), StateCancelled, StateCompleted)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list stalled instances")
	}

	acted := 0
	for _, instance := range stalled {
		intervened, err := m.intervene(ctx, instance)
		if err != nil {
			log.Printf("fulfillment monitor: %s: %v", instance.CorrelationID, err)
			continue
		}
		if intervened {
			acted++
		}
	}

	return acted, nil
}

func (m *Monitor) intervene(ctx context.Context, instance *saga.Instance) (bool, error) {
	timeoutEvent := m.timeoutEvent(instance)
	if timeoutEvent == nil {
		// Shipped orders wait on delivery for as long as it takes.
		return false, nil
	}

	instance.RetryCount++
	instance.Timestamps = instance.Timestamps.Update()
	instance.Version = instance.Version.Update()

	if err := m.store.Save(ctx, instance); err != nil {
		if errors.Is(err, saga.ErrVersionConflict) {
			// The instance moved while we were sweeping; leave it be.
			return false, nil
		}
		return false, errors.Wrap(err, "failed to record intervention")
	}

	telemetry.RecordCounter(ctx, "saga_stalled_total", "Stalled saga instances noticed by the monitor", 1,
		attribute.String("saga", Name),
		attribute.String("state", string(instance.State)),
	)

	if instance.RetryCount <= m.maxRetries {
		log.Printf("fulfillment monitor: %s stalled in %s (%d/%d), waiting another cycle",
			instance.CorrelationID, instance.State, instance.RetryCount, m.maxRetries)
		return true, nil
	}

	log.Printf("fulfillment monitor: %s exhausted retries in %s, publishing %s",
		instance.CorrelationID, instance.State, timeoutEvent.Topic)

	if err := m.publisher.Publish(ctx, timeoutEvent); err != nil {
		return true, errors.Wrap(err, "failed to publish timeout event")
	}

	return true, nil
}

// timeoutEvent builds the synthetic failure event that cancels a saga
// stuck in the given state, or nil for states the monitor leaves alone.
func (m *Monitor) timeoutEvent(instance *saga.Instance) *messaging.Message {
	switch instance.State {
	case StateReservingInventory:
		return messaging.NewEvent(instance.CorrelationID, messaging.TopicInventoryReservationFailed, messaging.InventoryReservationFailedData{
			OrderID: instance.CorrelationID,
			Reason:  "inventory reservation timed out",
		})
	case StateProcessingPayment:
		return messaging.NewEvent(instance.CorrelationID, messaging.TopicPaymentFailed, messaging.PaymentFailedData{
			OrderID: instance.CorrelationID,
			Reason:  "payment processing timed out",
		})
	case StateCreatingShipment:
		return messaging.NewEvent(instance.CorrelationID, messaging.TopicShipmentFailed, messaging.ShipmentFailedData{
			OrderID: instance.CorrelationID,
			Reason:  "shipment creation timed out",
		})
	default:
		return nil
	}
}
