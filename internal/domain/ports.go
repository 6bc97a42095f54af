package domain

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
)

// OutboxMessage хранит данные события для transactional outbox.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository сохраняет события для последующей публикации.
// EnqueueTx кладёт событие в ту же транзакцию хранилища, что и доменная
// запись: событие и мутация коммитятся атомарно вместе.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	EnqueueTx(tx docstore.Tx, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxPublisher публикует события из outbox наружу; должен быть идемпотентным.
type OutboxPublisher interface {
	Publish(msg OutboxMessage) error
}
