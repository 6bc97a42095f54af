package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения заказов в Kafka topic
// в формате OrderEvent.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish разворачивает payload outbox-сообщения в OrderEvent и отправляет
// его с ключом агрегата: события одного заказа идут в одну партицию по
// порядку. Идентификатор outbox-записи уходит в заголовок для трассировки.
func (p *OutboxTopicPublisher) Publish(msg domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	event, err := orderEventFromOutbox(msg)
	if err != nil {
		return err
	}

	headers := map[string]string{HeaderOutboxID: msg.ID}
	return p.producer.PublishRecord(p.topic, outboxMessageKey(msg), event, headers)
}

// orderEventFromOutbox собирает OrderEvent из outbox-записи. Поля userId и
// status payload'а поднимаются на верхний уровень события, остальное остаётся
// в Metadata.
func orderEventFromOutbox(msg domain.OutboxMessage) (*OrderEvent, error) {
	var fields map[string]interface{}
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &fields); err != nil {
			return nil, fmt.Errorf("decode payload of outbox message %s: %w", msg.ID, err)
		}
	}

	userID, _ := fields["userId"].(string)
	status, _ := fields["status"].(string)

	return NewOrderEvent(msg.EventType, msg.AggregateID, userID, status, fields), nil
}

func outboxMessageKey(msg domain.OutboxMessage) string {
	if msg.AggregateID != "" {
		return msg.AggregateID
	}
	return msg.ID
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
