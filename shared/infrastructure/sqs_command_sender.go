package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
)

var _ messaging.CommandSender = (*SQSCommandSender)(nil)

// SQSCommandSender delivers commands straight to the queue of the one
// service bound to each command topic. Unlike events, commands bypass
// the SNS fan-out: exactly one consumer may receive them.
type SQSCommandSender struct {
	client *sqs.Client
	routes map[messaging.Topic]string // command topic -> queue URL
}

// NewSQSCommandSender creates a sender with a topic-to-queue routing
// table.
func NewSQSCommandSender(client *sqs.Client, routes map[messaging.Topic]string) *SQSCommandSender {
	return &SQSCommandSender{
		client: client,
		routes: routes,
	}
}

// Send delivers each command to its bound queue. An unrouted topic is a
// wiring bug and fails fast.
func (s *SQSCommandSender) Send(ctx context.Context, msgs ...*messaging.Message) error {
	for _, msg := range msgs {
		queueURL, ok := s.routes[msg.Topic]
		if !ok {
			return errors.Errorf("no queue bound for command topic %s", msg.Topic)
		}

		body, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal command")
		}

		_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(queueURL),
			MessageBody: aws.String(string(body)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"topic": {
					DataType:    aws.String("String"),
					StringValue: aws.String(string(msg.Topic)),
				},
				"correlation_id": {
					DataType:    aws.String("String"),
					StringValue: aws.String(msg.CorrelationID.String()),
				},
			},
		})
		if err != nil {
			return errors.Wrapf(err, "failed to send command %s", msg.Topic)
		}
	}

	return nil
}
