package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const defaultClientID = "storefront"

// ProducerOption подстраивает sarama-конфигурацию под окружение витрины.
type ProducerOption func(*sarama.Config)

// WithClientID задаёт client.id, с которым producer представляется брокерам.
func WithClientID(clientID string) ProducerOption {
	return func(cfg *sarama.Config) {
		if clientID != "" {
			cfg.ClientID = clientID
		}
	}
}

// WithMaxRetries задаёт число повторов отправки на уровне sarama.
func WithMaxRetries(maxRetries int) ProducerOption {
	return func(cfg *sarama.Config) {
		if maxRetries > 0 {
			cfg.Producer.Retry.Max = maxRetries
		}
	}
}

// WithCompression задаёт кодек сжатия сообщений.
func WithCompression(codec sarama.CompressionCodec) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.Compression = codec
	}
}

// Producer — синхронный Kafka producer для событий витрины.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer создает producer с идемпотентной публикацией и подтверждением
// от всех in-sync реплик. Умолчания переопределяются через options.
func NewProducer(brokers []string, options ...ProducerOption) (*Producer, error) {
	config := sarama.NewConfig()
	config.ClientID = defaultClientID
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // требование идемпотентного режима

	for _, option := range options {
		option(config)
	}

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// PublishEvent публикует событие в Kafka без заголовков.
func (p *Producer) PublishEvent(topic string, key string, event interface{}) error {
	return p.PublishRecord(topic, key, event, nil)
}

// PublishRecord публикует событие с заголовками сообщения.
func (p *Producer) PublishRecord(topic string, key string, event interface{}, headers map[string]string) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now(),
	}
	for name, value := range headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(name),
			Value: []byte(value),
		})
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
