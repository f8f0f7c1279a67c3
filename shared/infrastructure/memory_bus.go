package infrastructure

import (
	"context"
	"log"
	"sync"

	"github.com/shopfleet/order-system/shared/messaging"
)

var (
	_ messaging.Publisher     = (*MemoryBus)(nil)
	_ messaging.CommandSender = (*MemoryBus)(nil)
)

type memorySubscription struct {
	pattern messaging.Topic
	handler messaging.Handler
}

type memoryDelivery struct {
	message  *messaging.Message
	handler  messaging.Handler
	attempts int
}

// MemoryBus is an in-process transport with the same delivery contract
// as the SNS/SQS pair: at-least-once, FIFO per publisher, redelivery on
// handler error. Deliveries enqueued while a handler is running are
// dispatched only after that handler returns, so a handler always
// finishes (including its persistence) before the messages it emitted
// are seen by anyone.
type MemoryBus struct {
	mu            sync.Mutex
	subscriptions []memorySubscription
	queue         []*memoryDelivery
	deadLetters   []*messaging.Message
	maxAttempts   int
	pumping       bool
}

// NewMemoryBus creates a bus that redelivers each failed message up to
// maxAttempts times before parking it on the dead-letter list.
func NewMemoryBus(maxAttempts int) *MemoryBus {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &MemoryBus{maxAttempts: maxAttempts}
}

// Register binds a handler to a topic pattern. Patterns support the
// same * and # wildcards as messaging.Topic.
func (b *MemoryBus) Register(pattern messaging.Topic, handler messaging.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = append(b.subscriptions, memorySubscription{
		pattern: pattern,
		handler: handler,
	})
}

// Publish implements messaging.Publisher.
func (b *MemoryBus) Publish(ctx context.Context, msgs ...*messaging.Message) error {
	b.enqueue(msgs...)
	b.pump(ctx)
	return nil
}

// Send implements messaging.CommandSender. The memory bus has no
// routing table; command topics resolve through the same subscriptions
// as events.
func (b *MemoryBus) Send(ctx context.Context, msgs ...*messaging.Message) error {
	b.enqueue(msgs...)
	b.pump(ctx)
	return nil
}

// DeadLetters returns the messages that exhausted their redeliveries.
func (b *MemoryBus) DeadLetters() []*messaging.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*messaging.Message, len(b.deadLetters))
	copy(out, b.deadLetters)
	return out
}

func (b *MemoryBus) enqueue(msgs ...*messaging.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range msgs {
		for _, sub := range b.subscriptions {
			if !msg.Topic.Matches(sub.pattern) {
				continue
			}
			b.queue = append(b.queue, &memoryDelivery{
				message: msg.Clone(),
				handler: sub.handler,
			})
		}
	}
}

// pump drains the queue unless another call higher up the stack is
// already draining it. Redelivered messages go to the back of the
// queue.
func (b *MemoryBus) pump(ctx context.Context) {
	b.mu.Lock()
	if b.pumping {
		b.mu.Unlock()
		return
	}
	b.pumping = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.pumping = false
		b.mu.Unlock()
	}()

	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		delivery := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		delivery.attempts++
		if err := delivery.handler.Handle(ctx, delivery.message); err != nil {
			if delivery.attempts >= b.maxAttempts {
				log.Printf("memory bus: dead-lettering %s after %d attempts: %v",
					delivery.message.Topic, delivery.attempts, err)
				b.mu.Lock()
				b.deadLetters = append(b.deadLetters, delivery.message)
				b.mu.Unlock()
				continue
			}
			b.mu.Lock()
			b.queue = append(b.queue, delivery)
			b.mu.Unlock()
		}
	}
}
