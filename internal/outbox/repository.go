// Package outbox реализует transactional outbox поверх документного хранилища:
// события складываются в коллекцию outbox той же транзакцией, что и доменная
// запись, а отдельный worker публикует их в брокер.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CollectionOutbox — имя коллекции outbox-записей.
const CollectionOutbox = "outbox"

// Статусы outbox-записи.
const (
	statusPending = "pending"
	statusSent    = "sent"
	statusFailed  = "failed"
)

// Repository хранит outbox-записи в докстворе.
type Repository struct {
	store docstore.Store
}

// NewRepository создаёт репозиторий outbox.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Enqueue сохраняет событие отдельной транзакцией. Для атомарности с доменной
// записью используйте EnqueueTx.
func (r *Repository) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	var result domain.OutboxMessage
	err := r.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		var txErr error
		result, txErr = r.EnqueueTx(tx, msg)
		return txErr
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("enqueue outbox message: %w", err)
	}
	return result, nil
}

// EnqueueTx кладёт событие в переданную транзакцию: запись закоммитится
// атомарно вместе с остальными мутациями транзакции.
func (r *Repository) EnqueueTx(tx docstore.Tx, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	err := tx.Set(CollectionOutbox, msg.ID, map[string]any{
		"aggregateType": msg.AggregateType,
		"aggregateId":   msg.AggregateID,
		"eventType":     msg.EventType,
		"payload":       string(msg.Payload),
		"status":        statusPending,
		"attempts":      int64(0),
		"createdAt":     docstore.EncodeTime(time.Now().UTC()),
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// PullPending возвращает порцию неопубликованных событий, старые первыми.
func (r *Repository) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	docs, err := r.store.Query(ctx, CollectionOutbox, docstore.Query{
		Filters: map[string]any{"status": statusPending},
		OrderBy: docstore.OrderBy{Field: "createdAt", Direction: docstore.Ascending},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("pull pending outbox messages: %w", err)
	}

	messages := make([]domain.OutboxMessage, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, decodeMessage(doc))
	}
	return messages, nil
}

// Stats возвращает размер backlog и возраст самой старой pending-записи.
func (r *Repository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	docs, err := r.store.Query(ctx, CollectionOutbox, docstore.Query{
		Filters: map[string]any{"status": statusPending},
		OrderBy: docstore.OrderBy{Field: "createdAt", Direction: docstore.Ascending},
	})
	if err != nil {
		return domain.OutboxStats{}, fmt.Errorf("collect outbox stats: %w", err)
	}

	stats := domain.OutboxStats{PendingCount: len(docs)}
	if len(docs) > 0 {
		if t, ok := docstore.GetTime(docs[0].Data, "createdAt"); ok {
			stats.OldestPendingAt = t
		}
	}
	return stats, nil
}

// MarkSent помечает событие опубликованным.
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	err := r.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Update(CollectionOutbox, id, map[string]any{
			"status": statusSent,
			"sentAt": docstore.EncodeTime(time.Now().UTC()),
		})
	})
	if err != nil {
		return fmt.Errorf("mark outbox %s sent: %w", id, err)
	}
	return nil
}

// MarkFailed помечает событие невосстановимо неопубликованным и увеличивает
// счётчик попыток.
func (r *Repository) MarkFailed(ctx context.Context, id string) error {
	err := r.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		doc, err := tx.Get(CollectionOutbox, id)
		if err != nil {
			return err
		}
		attempts, _ := docstore.GetInt(doc.Data, "attempts")
		return tx.Update(CollectionOutbox, id, map[string]any{
			"status":   statusFailed,
			"attempts": attempts + 1,
			"failedAt": docstore.EncodeTime(time.Now().UTC()),
		})
	})
	if err != nil {
		return fmt.Errorf("mark outbox %s failed: %w", id, err)
	}
	return nil
}

func decodeMessage(doc docstore.Document) domain.OutboxMessage {
	msg := domain.OutboxMessage{ID: doc.ID}
	msg.AggregateType, _ = docstore.GetString(doc.Data, "aggregateType")
	msg.AggregateID, _ = docstore.GetString(doc.Data, "aggregateId")
	msg.EventType, _ = docstore.GetString(doc.Data, "eventType")
	if payload, ok := docstore.GetString(doc.Data, "payload"); ok {
		msg.Payload = []byte(payload)
	}
	return msg
}
