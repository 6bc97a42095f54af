package orders

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Типы доменных событий заказа, публикуемых через transactional outbox.
const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderCancelled     = "order.cancelled"

	aggregateTypeOrder = "order"
)

// orderEventPayload — тело события заказа в outbox.
type orderEventPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId,omitempty"`
	Status  string `json:"status"`
	Total   string `json:"total,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// enqueueEventTx кладёт событие заказа в outbox внутри той же транзакции, что и
// доменная запись. При отсутствии настроенного outbox — no-op.
func (s *Service) enqueueEventTx(tx docstore.Tx, eventType, orderID string, payload orderEventPayload) error {
	if s.outbox == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	_, err = s.outbox.EnqueueTx(tx, domain.OutboxMessage{
		AggregateType: aggregateTypeOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       raw,
	})
	if err != nil {
		return fmt.Errorf("enqueue %s event: %w", eventType, err)
	}
	s.metrics.RecordOutboxEvent()
	return nil
}
