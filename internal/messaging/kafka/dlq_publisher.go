package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DeadLetterPublisher отправляет сообщения, которые не удалось доставить в
// основной topic, в DLQ. Диагностика (исходный topic, число попыток, текст
// ошибки, время) идёт в заголовках, исходное событие — в теле без изменений.
type DeadLetterPublisher struct {
	producer    *Producer
	topic       string
	sourceTopic string
}

// NewDLQPublisher создаёт паблишер DLQ. sourceTopic — topic, в который
// сообщение не удалось опубликовать.
func NewDLQPublisher(producer *Producer, topic, sourceTopic string) *DeadLetterPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	return &DeadLetterPublisher{
		producer:    producer,
		topic:       topic,
		sourceTopic: sourceTopic,
	}
}

// Publish отправляет сообщение в DLQ без данных о причине сбоя.
func (p *DeadLetterPublisher) Publish(msg domain.OutboxMessage) error {
	return p.publish(msg, 0, nil)
}

// PublishFailure отправляет сообщение в DLQ вместе с числом исчерпанных
// попыток и причиной сбоя публикации.
func (p *DeadLetterPublisher) PublishFailure(msg domain.OutboxMessage, attempts int, cause error) error {
	return p.publish(msg, attempts, cause)
}

func (p *DeadLetterPublisher) publish(msg domain.OutboxMessage, attempts int, cause error) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	failedAt := time.Now().UTC()

	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	headers := map[string]string{
		HeaderOutboxID:      msg.ID,
		HeaderOriginalTopic: p.sourceTopic,
		HeaderFailedAt:      failedAt.Format(time.RFC3339Nano),
	}
	if attempts > 0 {
		headers[HeaderRetryCount] = strconv.Itoa(attempts)
	}
	if cause != nil {
		headers[HeaderErrorMessage] = cause.Error()
	}

	envelope := struct {
		OutboxID      string          `json:"outbox_id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
		PublishError  string          `json:"publish_error,omitempty"`
		FailedAt      time.Time       `json:"failed_at"`
	}{
		OutboxID:      msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		FailedAt:      failedAt,
	}
	if cause != nil {
		envelope.PublishError = cause.Error()
	}

	return p.producer.PublishRecord(p.topic, outboxMessageKey(msg), envelope, headers)
}

var _ domain.OutboxPublisher = (*DeadLetterPublisher)(nil)
