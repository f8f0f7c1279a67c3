package saga

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
)

// Engine drives saga instances: load by correlation id, resolve the
// transition for (state, topic), run its action, publish the outgoing
// messages, persist with the version that was read. It is
// domain-agnostic; the Definition supplies the semantics.
//
// Error contract toward the transport: a nil return acknowledges the
// message, a non-nil return requeues it. Version conflicts and publish
// failures are therefore returned, while unmatched messages are
// swallowed after logging — redelivering those could never succeed.
type Engine struct {
	def       *Definition
	store     Store
	publisher messaging.Publisher
	commands  messaging.CommandSender
}

// NewEngine creates an engine for one saga definition.
func NewEngine(def *Definition, store Store, publisher messaging.Publisher, commands messaging.CommandSender) *Engine {
	return &Engine{
		def:       def,
		store:     store,
		publisher: publisher,
		commands:  commands,
	}
}

// HandlerID implements messaging.Handler.
func (e *Engine) HandlerID() string {
	return e.def.Name() + "-saga-engine"
}

// Handle processes one inbound message. Outgoing messages are published
// before the new state persists, so a crash between the two can at
// worst duplicate a command; downstream consumers key their work by
// correlation id and absorb the duplicate.
func (e *Engine) Handle(ctx context.Context, msg *messaging.Message) error {
	if msg.CorrelationID.IsZero() {
		log.Printf("saga %s: discarding %s without correlation id", e.def.Name(), msg.Topic)
		discardedTotal.WithLabelValues(e.def.Name(), "no_correlation_id").Inc()
		return nil
	}

	instance, err := e.store.Load(ctx, msg.CorrelationID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return errors.Wrap(err, "failed to load saga instance")
		}
		if msg.Topic != e.def.StartTopic() {
			// No instance and not the creating message: a stale retry
			// for a saga that never started here, or one already swept.
			log.Printf("saga %s: discarding %s for unknown instance %s", e.def.Name(), msg.Topic, msg.CorrelationID)
			discardedTotal.WithLabelValues(e.def.Name(), "unknown_instance").Inc()
			return nil
		}
		instance = NewInstance(msg.CorrelationID)
	}

	transition, ok := e.def.Transition(instance.State, msg.Topic)
	if !ok {
		// Duplicate or out-of-order delivery for a state already left.
		// Terminated sagas are never resurrected by late forward events.
		log.Printf("saga %s: no transition from %q on %s for %s, discarding",
			e.def.Name(), instance.State, msg.Topic, msg.CorrelationID)
		discardedTotal.WithLabelValues(e.def.Name(), "unmatched").Inc()
		return nil
	}

	outgoing, err := transition.Action(ctx, instance, msg)
	if err != nil {
		return errors.Wrapf(err, "transition action from %q on %s failed", instance.State, msg.Topic)
	}

	fromState := instance.State
	instance.State = transition.To
	instance.Timestamps = instance.Timestamps.Update()
	instance.Version = instance.Version.Update()

	if err := e.dispatch(ctx, outgoing); err != nil {
		return errors.Wrap(err, "failed to publish outgoing messages")
	}

	if err := e.store.Save(ctx, instance); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			conflictsTotal.WithLabelValues(e.def.Name()).Inc()
		}
		return errors.Wrap(err, "failed to persist saga instance")
	}

	transitionsTotal.WithLabelValues(e.def.Name(), string(fromState), string(transition.To)).Inc()
	return nil
}

// dispatch routes outgoing messages by kind: commands to the single
// bound consumer, events to every subscriber. Order within each kind is
// preserved because compensations rely on it.
func (e *Engine) dispatch(ctx context.Context, outgoing []*messaging.Message) error {
	for _, msg := range outgoing {
		switch msg.Kind {
		case messaging.KindCommand:
			if err := e.commands.Send(ctx, msg); err != nil {
				return errors.Wrapf(err, "failed to send command %s", msg.Topic)
			}
		default:
			if err := e.publisher.Publish(ctx, msg); err != nil {
				return errors.Wrapf(err, "failed to publish event %s", msg.Topic)
			}
		}
	}
	return nil
}
