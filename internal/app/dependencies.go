package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/orders"
	"github.com/vladislavdragonenkov/storefront/internal/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/users"
)

// Dependencies содержит инициализированные зависимости приложения.
type Dependencies struct {
	Store      docstore.Store
	Catalog    *catalog.Service
	Orders     *orders.Service
	Users      *users.Service
	OutboxRepo *outbox.Repository
	// OutboxWorker не nil только при настроенном Kafka.
	OutboxWorker  *outbox.Worker
	KafkaProducer *kafka.Producer
	Metrics       *metrics.OrderMetrics
	Logger        *log.Entry
}

// NewDependencies создаёт и связывает зависимости приложения.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	store, err := initStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	orderMetrics := metrics.NewOrderMetrics()
	outboxRepo := outbox.NewRepository(store)

	deps := &Dependencies{
		Store:      store,
		Catalog:    catalog.NewService(store, logger.WithField("component", "catalog")),
		Orders:     orders.NewService(store, outboxRepo, orderMetrics, logger.WithField("component", "orders")),
		Users:      users.NewService(store, logger.WithField("component", "users")),
		OutboxRepo: outboxRepo,
		Metrics:    orderMetrics,
		Logger:     logger,
	}

	producer, err := initKafkaProducer(cfg, logger)
	if err != nil {
		// Витрина работает и без Kafka: события копятся в outbox.
		logger.WithError(err).Warn("continuing without kafka")
	}
	if producer != nil {
		deps.KafkaProducer = producer
		deps.OutboxWorker = outbox.NewWorker(
			outboxRepo,
			kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer, kafka.TopicDeadLetterQueue, kafka.TopicOrderEvents)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
	}

	return deps, nil
}

// Close освобождает ресурсы зависимостей в обратном порядке инициализации.
func (d *Dependencies) Close() {
	closeKafka(d.KafkaProducer, d.Logger)
	if err := d.Store.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close document store")
	}
}
