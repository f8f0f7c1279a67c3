package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/shopfleet/order-system/shared/models"
)

var (
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
)

// Topic names a message type with dot-separated segments and supports
// pattern matching for subscriptions ("*" one segment, "#" any run).
type Topic string

func NewTopic(topic string) (Topic, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

func (t Topic) Matches(pattern Topic) bool {
	topicStr := t.String()
	patternStr := pattern.String()

	if strings.HasPrefix(patternStr, "#") && strings.HasSuffix(patternStr, "#") {
		return strings.Contains(
			topicStr,
			strings.TrimSuffix(strings.TrimPrefix(patternStr, "#"), "#"),
		)
	}

	if strings.HasPrefix(patternStr, "#") {
		return strings.HasSuffix(
			topicStr,
			strings.TrimPrefix(patternStr, "#"),
		)
	}

	if strings.HasSuffix(patternStr, "#") {
		return strings.HasPrefix(
			topicStr,
			strings.TrimSuffix(patternStr, "#"),
		)
	}

	patternParts := strings.Split(patternStr, ".")
	topicParts := strings.Split(topicStr, ".")

	return matchPattern(patternParts, topicParts)
}

func (t Topic) String() string {
	return string(t)
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) == 1 && patternParts[0] == "#" {
		return true
	}

	if len(patternParts) != len(topicParts) {
		return false
	}

	if len(patternParts) == 0 {
		return true
	}

	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}

	return false
}

// Kind distinguishes directed commands from broadcast integration events.
type Kind string

const (
	KindCommand Kind = "command"
	KindEvent   Kind = "event"
)

// Metadata carries transport-level key/value pairs alongside a message.
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Set(key string, value string) {
	m[key] = value
}

func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Message is the wire envelope for both commands and integration events.
// CorrelationID ties every message of one order's fulfillment together.
type Message struct {
	ID            models.ID   `json:"id"`
	CorrelationID models.ID   `json:"correlation_id"`
	Topic         Topic       `json:"topic"`
	Kind          Kind        `json:"kind"`
	Version       string      `json:"version"`
	Data          interface{} `json:"data"`
	Metadata      Metadata    `json:"metadata"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Publisher broadcasts integration events to every subscriber of a topic.
type Publisher interface {
	Publish(ctx context.Context, messages ...*Message) error
}

// CommandSender delivers commands to the single service bound to the
// command's topic.
type CommandSender interface {
	Send(ctx context.Context, messages ...*Message) error
}

// Handler consumes delivered messages. A non-nil error triggers
// redelivery by the transport.
type Handler interface {
	HandlerID() string
	Handle(ctx context.Context, msg *Message) error
}

// Subscriber binds a handler to a delivery loop.
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	id string
	fn func(ctx context.Context, msg *Message) error
}

func NewHandlerFunc(id string, fn func(ctx context.Context, msg *Message) error) *HandlerFunc {
	return &HandlerFunc{id: id, fn: fn}
}

func (h *HandlerFunc) HandlerID() string {
	return h.id
}

func (h *HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return h.fn(ctx, msg)
}

// NewEvent creates an integration event correlated to one order.
func NewEvent(correlationID models.ID, topic Topic, data interface{}) *Message {
	return newMessage(correlationID, topic, KindEvent, data)
}

// NewCommand creates a directed command correlated to one order.
func NewCommand(correlationID models.ID, topic Topic, data interface{}) *Message {
	return newMessage(correlationID, topic, KindCommand, data)
}

func newMessage(correlationID models.ID, topic Topic, kind Kind, data interface{}) *Message {
	return &Message{
		ID:            models.GenerateUUID(),
		CorrelationID: correlationID,
		Topic:         topic,
		Kind:          kind,
		Version:       "1.0",
		Data:          data,
		Metadata:      make(Metadata),
		Timestamp:     time.Now(),
	}
}

// WithMetadata adds a metadata entry.
func (m *Message) WithMetadata(key string, value string) *Message {
	if m.Metadata == nil {
		m.Metadata = make(Metadata)
	}
	m.Metadata.Set(key, value)
	return m
}

// ToJSON converts the message to JSON.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes a message from JSON.
func FromJSON(data []byte) (*Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return &msg, err
}

// MarshalPayload marshals the message payload.
func (m *Message) MarshalPayload() (json.RawMessage, error) {
	if b, ok := m.Data.([]byte); ok {
		return b, nil
	}

	if b, ok := m.Data.(json.RawMessage); ok {
		return b, nil
	}

	return json.Marshal(m.Data)
}

// UnmarshalPayload unmarshals the message payload into the given receiver.
// The payload may still be a typed struct (in-process delivery) or raw
// JSON (off the wire); both are handled.
func (m *Message) UnmarshalPayload(v interface{}) error {
	vValue := reflect.ValueOf(v)
	if vValue.Kind() != reflect.Ptr {
		return ErrInvalidReceiver
	}

	vValue = vValue.Elem()
	payloadValue := reflect.ValueOf(m.Data)
	if payloadValue.IsValid() && vValue.Type() == payloadValue.Type() {
		vValue.Set(payloadValue)
		return nil
	}

	if b, ok := m.Data.([]byte); ok {
		return json.Unmarshal(b, v)
	}

	if b, ok := m.Data.(json.RawMessage); ok {
		return json.Unmarshal([]byte(b), v)
	}

	raw, err := m.MarshalPayload()
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// Clone creates a copy of the message.
func (m *Message) Clone() *Message {
	return &Message{
		ID:            m.ID,
		CorrelationID: m.CorrelationID,
		Topic:         m.Topic,
		Kind:          m.Kind,
		Version:       m.Version,
		Data:          m.Data,
		Metadata:      m.Metadata.Clone(),
		Timestamp:     m.Timestamp,
	}
}
