package saga

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	topicThingCreated  messaging.Topic = "thing.created"
	topicThingFinished messaging.Topic = "thing.finished"
	topicDoWork        messaging.Topic = "thing.work"
)

// recordingBus captures dispatched messages in order.
type recordingBus struct {
	published []*messaging.Message
	sent      []*messaging.Message
	failWith  error
}

func (b *recordingBus) Publish(ctx context.Context, msgs ...*messaging.Message) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.published = append(b.published, msgs...)
	return nil
}

func (b *recordingBus) Send(ctx context.Context, msgs ...*messaging.Message) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.sent = append(b.sent, msgs...)
	return nil
}

func testDefinition() *Definition {
	def := NewDefinition("test", topicThingCreated)

	def.On(StateInitial, topicThingCreated, Transition{
		To: "working",
		Action: func(ctx context.Context, instance *Instance, msg *messaging.Message) ([]*messaging.Message, error) {
			return []*messaging.Message{
				messaging.NewCommand(instance.CorrelationID, topicDoWork, nil),
			}, nil
		},
	})

	def.On("working", topicThingFinished, Transition{
		To:       "done",
		Terminal: true,
		Action: func(ctx context.Context, instance *Instance, msg *messaging.Message) ([]*messaging.Message, error) {
			return nil, nil
		},
	})

	return def
}

func TestEngine_CreatesInstanceOnStartTopic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{}
	engine := NewEngine(testDefinition(), store, bus, bus)

	correlationID := models.GenerateUUID()
	require.NoError(t, engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingCreated, nil)))

	instance, err := store.Load(ctx, correlationID)
	require.NoError(t, err)
	assert.Equal(t, State("working"), instance.State)
	assert.Equal(t, 1, instance.Version.Value)

	require.Len(t, bus.sent, 1)
	assert.Equal(t, topicDoWork, bus.sent[0].Topic)
	assert.Empty(t, bus.published)
}

func TestEngine_DiscardsWithoutCorrelationID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{}
	engine := NewEngine(testDefinition(), store, bus, bus)

	msg := messaging.NewEvent("", topicThingCreated, nil)
	require.NoError(t, engine.Handle(ctx, msg))
	assert.Empty(t, bus.sent)
}

func TestEngine_DiscardsUnknownInstance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{}
	engine := NewEngine(testDefinition(), store, bus, bus)

	// Not the start topic and no instance exists: acknowledged, no effect.
	require.NoError(t, engine.Handle(ctx, messaging.NewEvent(models.GenerateUUID(), topicThingFinished, nil)))
	assert.Empty(t, bus.sent)
	assert.Empty(t, bus.published)
}

func TestEngine_DiscardsDuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{}
	engine := NewEngine(testDefinition(), store, bus, bus)

	correlationID := models.GenerateUUID()
	created := messaging.NewEvent(correlationID, topicThingCreated, nil)
	require.NoError(t, engine.Handle(ctx, created))

	// Redelivery of the same event finds no transition from "working"
	// and is acknowledged without a second command.
	require.NoError(t, engine.Handle(ctx, created))

	instance, err := store.Load(ctx, correlationID)
	require.NoError(t, err)
	assert.Equal(t, State("working"), instance.State)
	assert.Equal(t, 1, instance.Version.Value)
	assert.Len(t, bus.sent, 1)
}

func TestEngine_TerminalStateIsNeverLeft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{}
	engine := NewEngine(testDefinition(), store, bus, bus)

	correlationID := models.GenerateUUID()
	require.NoError(t, engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingCreated, nil)))
	require.NoError(t, engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingFinished, nil)))

	instance, err := store.Load(ctx, correlationID)
	require.NoError(t, err)
	assert.Equal(t, State("done"), instance.State)

	// Late forward events do not resurrect a finished saga.
	require.NoError(t, engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingFinished, nil)))
	require.NoError(t, engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingCreated, nil)))

	instance, err = store.Load(ctx, correlationID)
	require.NoError(t, err)
	assert.Equal(t, State("done"), instance.State)
	assert.Equal(t, 2, instance.Version.Value)
}

func TestEngine_ActionErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{}

	def := NewDefinition("failing", topicThingCreated)
	def.On(StateInitial, topicThingCreated, Transition{
		To: "working",
		Action: func(ctx context.Context, instance *Instance, msg *messaging.Message) ([]*messaging.Message, error) {
			return nil, errors.New("downstream unavailable")
		},
	})

	engine := NewEngine(def, store, bus, bus)
	correlationID := models.GenerateUUID()

	err := engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingCreated, nil))
	require.Error(t, err)

	// Nothing persisted: redelivery will retry the whole transition.
	_, err = store.Load(ctx, correlationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_PublishFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	bus := &recordingBus{failWith: errors.New("broker down")}
	engine := NewEngine(testDefinition(), store, bus, bus)

	correlationID := models.GenerateUUID()
	err := engine.Handle(ctx, messaging.NewEvent(correlationID, topicThingCreated, nil))
	require.Error(t, err)

	_, err = store.Load(ctx, correlationID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// conflictingStore fails every Save with a version conflict.
type conflictingStore struct {
	*MemoryStore
}

func (s *conflictingStore) Save(ctx context.Context, instance *Instance) error {
	return ErrVersionConflict
}

func TestEngine_VersionConflictRequeues(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	engine := NewEngine(testDefinition(), &conflictingStore{NewMemoryStore()}, bus, bus)

	err := engine.Handle(ctx, messaging.NewEvent(models.GenerateUUID(), topicThingCreated, nil))
	require.Error(t, err)
	assert.ErrorIs(t, errors.Cause(err), ErrVersionConflict)
}
