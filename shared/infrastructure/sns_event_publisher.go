package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
	"golang.org/x/sync/errgroup"
)

var _ messaging.Publisher = (*SNSEventPublisher)(nil)

const maxBatchSize = 10

type snsMessage struct {
	ID            string             `json:"id"`
	CorrelationID string             `json:"correlation_id"`
	Topic         string             `json:"topic"`
	Kind          string             `json:"kind"`
	Metadata      messaging.Metadata `json:"metadata"`
	Payload       json.RawMessage    `json:"payload"`
	Timestamp     time.Time          `json:"timestamp"`
}

// SNSEventPublisher broadcasts integration events through an SNS topic.
// Subscribing services attach their queues with filter policies on the
// topic message attribute.
type SNSEventPublisher struct {
	client   *sns.Client
	topicArn string
}

// NewSNSEventPublisher creates a new SNSEventPublisher.
func NewSNSEventPublisher(client *sns.Client, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{
		client:   client,
		topicArn: topicArn,
	}
}

// Publish publishes events to SNS in batches of ten.
func (p *SNSEventPublisher) Publish(ctx context.Context, msgs ...*messaging.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	batches := splitToChunks(msgs, maxBatchSize)

	gr, ctx := errgroup.WithContext(ctx)

	for _, batch := range batches {
		batch := batch
		gr.Go(func() error {
			return p.batchPublish(ctx, batch)
		})
	}

	return gr.Wait()
}

func (p *SNSEventPublisher) batchPublish(ctx context.Context, msgs []*messaging.Message) error {
	requests := make([]types.PublishBatchRequestEntry, len(msgs))

	for i, msg := range msgs {
		payload, err := msg.MarshalPayload()
		if err != nil {
			return errors.Wrap(err, "failed to marshal payload")
		}

		wire := &snsMessage{
			ID:            msg.ID.String(),
			CorrelationID: msg.CorrelationID.String(),
			Topic:         string(msg.Topic),
			Kind:          string(msg.Kind),
			Metadata:      msg.Metadata,
			Payload:       payload,
			Timestamp:     msg.Timestamp,
		}

		wireJSON, err := json.Marshal(wire)
		if err != nil {
			return errors.Wrap(err, "failed to marshal message")
		}

		attrs := map[string]types.MessageAttributeValue{
			"topic": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Topic)),
			},
			"correlation_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.CorrelationID.String()),
			},
		}

		for k, v := range msg.Metadata {
			if k == SQSMessageIDKey || k == SQSReceiptHandleKey {
				continue
			}

			attrs[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}

		requests[i] = types.PublishBatchRequestEntry{
			Id:                aws.String(msg.ID.String()),
			Message:           aws.String(string(wireJSON)),
			MessageAttributes: attrs,
		}
	}

	_, err := p.client.PublishBatch(
		ctx,
		&sns.PublishBatchInput{
			TopicArn:                   &p.topicArn,
			PublishBatchRequestEntries: requests,
		},
	)
	if err != nil {
		return errors.Wrap(err, "failed to publish batch to SNS")
	}

	return nil
}

// splitToChunks splits slice into chunks of specified size.
func splitToChunks[T any](slice []T, chunkSize int) [][]T {
	var chunks [][]T
	for i := 0; i < len(slice); i += chunkSize {
		end := i + chunkSize
		if end > len(slice) {
			end = len(slice)
		}
		chunks = append(chunks, slice[i:end])
	}
	return chunks
}
