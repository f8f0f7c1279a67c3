package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/pkg/errors"
	"github.com/shopfleet/order-system/shared/messaging"
)

// SNSPublisherAdapter wires an SNSEventPublisher to a default AWS
// client config (LocalStack-compatible when AWS_ENDPOINT_URL is set).
type SNSPublisherAdapter struct {
	snsPublisher *SNSEventPublisher
}

var _ messaging.Publisher = (*SNSPublisherAdapter)(nil)

// NewSNSPublisherAdapter creates a new SNS publisher adapter.
func NewSNSPublisherAdapter(topicArn string) (*SNSPublisherAdapter, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	snsClient := sns.NewFromConfig(cfg)

	return &SNSPublisherAdapter{
		snsPublisher: NewSNSEventPublisher(snsClient, topicArn),
	}, nil
}

// Publish implements messaging.Publisher.
func (p *SNSPublisherAdapter) Publish(ctx context.Context, msgs ...*messaging.Message) error {
	return p.snsPublisher.Publish(ctx, msgs...)
}

// Close closes the publisher.
func (p *SNSPublisherAdapter) Close() error {
	// SNS client doesn't need explicit closing
	return nil
}
