package saga

import (
	"context"

	"github.com/shopfleet/order-system/shared/messaging"
)

// Action executes a transition: it records fields on the instance and
// returns the messages to publish. It must not touch Instance.State or
// Instance.Version; the engine owns those.
type Action func(ctx context.Context, instance *Instance, msg *messaging.Message) ([]*messaging.Message, error)

// Transition is one row of a definition's table.
type Transition struct {
	To       State
	Terminal bool
	Action   Action
}

// Definition is the domain-specific transition table interpreted by the
// generic Engine: a map from (current state, message topic) to the
// applicable transition. The pair (StateInitial, start topic) creates
// new instances; every other pair requires an existing instance.
type Definition struct {
	name       string
	startTopic messaging.Topic
	table      map[State]map[messaging.Topic]Transition
	terminal   map[State]bool
}

// NewDefinition creates an empty definition. startTopic designates the
// message that may create a new instance.
func NewDefinition(name string, startTopic messaging.Topic) *Definition {
	return &Definition{
		name:       name,
		startTopic: startTopic,
		table:      make(map[State]map[messaging.Topic]Transition),
		terminal:   make(map[State]bool),
	}
}

// Name returns the definition name, used in logs and metrics.
func (d *Definition) Name() string {
	return d.name
}

// StartTopic returns the topic that creates new instances.
func (d *Definition) StartTopic() messaging.Topic {
	return d.startTopic
}

// On registers a transition row. Registering the same (from, topic)
// pair twice overwrites the earlier row.
func (d *Definition) On(from State, topic messaging.Topic, t Transition) *Definition {
	rows, ok := d.table[from]
	if !ok {
		rows = make(map[messaging.Topic]Transition)
		d.table[from] = rows
	}
	rows[topic] = t
	if t.Terminal {
		d.terminal[t.To] = true
	}
	return d
}

// Transition resolves the row for (state, topic). A missing row means
// the message is a duplicate or stale retry and must be discarded.
func (d *Definition) Transition(state State, topic messaging.Topic) (Transition, bool) {
	rows, ok := d.table[state]
	if !ok {
		return Transition{}, false
	}
	t, ok := rows[topic]
	return t, ok
}

// IsTerminal reports whether a state ends the saga.
func (d *Definition) IsTerminal(state State) bool {
	return d.terminal[state]
}

// TerminalStates returns all terminal states, for store queries that
// must skip finished instances.
func (d *Definition) TerminalStates() []State {
	states := make([]State, 0, len(d.terminal))
	for s := range d.terminal {
		states = append(states, s)
	}
	return states
}
