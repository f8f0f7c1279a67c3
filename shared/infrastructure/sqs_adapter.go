package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
)

// SQSSubscriberAdapter lazily builds an SQSEventSubscriber for one
// queue when Subscribe is called.
type SQSSubscriberAdapter struct {
	sqsSubscriber *SQSEventSubscriber
	isRunning     bool
	queueURL      string
}

var _ messaging.Subscriber = (*SQSSubscriberAdapter)(nil)

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter.
func NewSQSSubscriberAdapter(queueURL string) (*SQSSubscriberAdapter, error) {
	return &SQSSubscriberAdapter{
		sqsSubscriber: nil, // created on Subscribe
		isRunning:     false,
		queueURL:      queueURL,
	}, nil
}

// Subscribe implements messaging.Subscriber.
func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, handler messaging.Handler) error {
	if s.isRunning {
		return errors.New("subscriber is already running")
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed to load AWS config")
	}

	sqsClient := sqs.NewFromConfig(cfg)

	s.sqsSubscriber = NewSQSEventSubscriber(sqsClient, s.queueURL, handler)

	if err := s.sqsSubscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.isRunning = true
	return nil
}

// NewSQSCommandSenderAdapter builds a command sender on the default AWS
// client config with the given topic-to-queue routes.
func NewSQSCommandSenderAdapter(routes map[messaging.Topic]string) (*SQSCommandSender, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return NewSQSCommandSender(sqs.NewFromConfig(cfg), routes), nil
}

// Close stops the subscriber.
func (s *SQSSubscriberAdapter) Close() error {
	if !s.isRunning || s.sqsSubscriber == nil {
		return nil
	}

	ctx := context.Background()
	if err := s.sqsSubscriber.Stop(ctx); err != nil {
		return errors.Wrap(err, "failed to stop SQS subscriber")
	}

	s.isRunning = false
	return nil
}
