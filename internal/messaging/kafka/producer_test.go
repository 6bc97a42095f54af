package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func newTestProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}
	return producer, mockProducer
}

func TestProducer_PublishEvent(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	// Проверяем сериализацию события и отсутствие заголовков.
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEvents {
			t.Errorf("expected topic %s, got %s", TopicOrderEvents, msg.Topic)
		}
		if len(msg.Headers) != 0 {
			t.Errorf("expected no headers, got %d", len(msg.Headers))
		}
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var event OrderEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return err
		}
		if event.EventType != "order.created" || event.OrderID != "test-order-123" {
			t.Errorf("unexpected event on the wire: %+v", event)
		}
		return nil
	})

	event := NewOrderEvent(
		"order.created",
		"test-order-123",
		"user-1",
		"pending",
		map[string]interface{}{
			"total": "20.00",
		},
	)

	if err := producer.PublishEvent(TopicOrderEvents, "test-order-123", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewOrderEvent("order.created", "test-order-123", "user-1", "pending", nil)

	if err := producer.PublishEvent(TopicOrderEvents, "test-order-123", event); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishRecordHeaders(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		if headers[HeaderOutboxID] != "outbox-42" {
			t.Errorf("expected outbox id header, got %v", headers)
		}
		if headers[HeaderOriginalTopic] != TopicOrderEvents {
			t.Errorf("expected original topic header, got %v", headers)
		}
		return nil
	})

	err := producer.PublishRecord(TopicDeadLetterQueue, "order-1", map[string]string{"reason": "broker down"}, map[string]string{
		HeaderOutboxID:      "outbox-42",
		HeaderOriginalTopic: TopicOrderEvents,
	})
	if err != nil {
		t.Fatalf("publish record: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishRecordMarshalError(t *testing.T) {
	producer, mockProducer := newTestProducer(t)

	// Каналы не сериализуются в JSON, сообщение не должно уйти в брокер.
	if err := producer.PublishRecord(TopicOrderEvents, "key", make(chan int), nil); err == nil {
		t.Fatal("expected marshal error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducerOptions(t *testing.T) {
	cfg := sarama.NewConfig()

	WithClientID("storefront-api")(cfg)
	WithMaxRetries(7)(cfg)
	WithCompression(sarama.CompressionGZIP)(cfg)

	if cfg.ClientID != "storefront-api" {
		t.Errorf("expected client id storefront-api, got %s", cfg.ClientID)
	}
	if cfg.Producer.Retry.Max != 7 {
		t.Errorf("expected 7 retries, got %d", cfg.Producer.Retry.Max)
	}
	if cfg.Producer.Compression != sarama.CompressionGZIP {
		t.Errorf("expected gzip compression, got %v", cfg.Producer.Compression)
	}

	// Пустой client id и неположительное число повторов не затирают умолчания.
	WithClientID("")(cfg)
	WithMaxRetries(0)(cfg)
	if cfg.ClientID != "storefront-api" || cfg.Producer.Retry.Max != 7 {
		t.Error("zero-value options must not override previous settings")
	}
}

func TestNewOrderEvent(t *testing.T) {
	metadata := map[string]interface{}{
		"reason": "changed my mind",
	}

	event := NewOrderEvent("order.cancelled", "order-123", "user-1", "cancelled", metadata)

	if event.EventType != "order.cancelled" {
		t.Errorf("expected event type order.cancelled, got %s", event.EventType)
	}
	if event.OrderID != "order-123" {
		t.Errorf("expected order id order-123, got %s", event.OrderID)
	}
	if event.UserID != "user-1" {
		t.Errorf("expected user id user-1, got %s", event.UserID)
	}
	if event.Status != "cancelled" {
		t.Errorf("expected status cancelled, got %s", event.Status)
	}
	if event.Metadata["reason"] != "changed my mind" {
		t.Error("metadata not set correctly")
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}
