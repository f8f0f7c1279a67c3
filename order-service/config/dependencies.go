package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopfleet/order-system/order-service/application"
	"github.com/shopfleet/order-system/order-service/fulfillment"
	"github.com/shopfleet/order-system/order-service/handlers"
	"github.com/shopfleet/order-system/order-service/infrastructure"
	sharedinfra "github.com/shopfleet/order-system/shared/infrastructure"
	"github.com/shopfleet/order-system/shared/messaging"
	"github.com/shopfleet/order-system/shared/saga"
	"github.com/shopfleet/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository *infrastructure.PostgresOrderRepository
	SagaStore       *sharedinfra.PostgresSagaStore

	// Use Cases
	CreateOrder       *application.CreateOrder
	AddOrderItem      *application.AddOrderItem
	GetOrder          *application.GetOrder
	ApplyStatusChange *application.ApplyStatusChange

	// Saga
	Engine  *saga.Engine
	Monitor *fulfillment.Monitor

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers

	// Infrastructure
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	CommandSender   *sharedinfra.SQSCommandSender
	EventSubscriber *sharedinfra.SQSSubscriberAdapter

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.Init(ctx, telConfig)
		if err != nil {
			fmt.Printf("Failed to initialize telemetry: %v\n", err)
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	deps.DB = db

	// Initialize AWS infrastructure
	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	routes := make(map[messaging.Topic]string, len(config.AWS.CommandQueues))
	for topic, queueURL := range config.AWS.CommandQueues {
		routes[messaging.Topic(topic)] = queueURL
	}

	commandSender, err := sharedinfra.NewSQSCommandSenderAdapter(routes)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS command sender: %w", err)
	}
	deps.CommandSender = commandSender

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	// Initialize repositories
	deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	deps.SagaStore = sharedinfra.NewPostgresSagaStore(db)

	// Initialize saga engine and monitor
	deps.Engine = saga.NewEngine(fulfillment.NewDefinition(), deps.SagaStore, eventPublisher, commandSender)
	deps.Monitor = fulfillment.NewMonitor(deps.SagaStore, eventPublisher,
		config.Saga.StallTimeout, config.Saga.SweepInterval, config.Saga.MaxRetries)

	// Initialize use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, eventPublisher, nil)
	deps.AddOrderItem = application.NewAddOrderItem(deps.OrderRepository)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.ApplyStatusChange = application.NewApplyStatusChange(deps.OrderRepository)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.AddOrderItem, deps.GetOrder, deps.SagaStore)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.Engine, deps.ApplyStatusChange)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
