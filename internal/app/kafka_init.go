package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer для событий витрины по конфигурации.
// Пустой список брокеров выключает Kafka: возвращается nil, nil, события
// остаются в outbox до появления брокера.
func initKafkaProducer(cfg Config, logger *log.Entry) (*kafka.Producer, error) {
	if cfg.KafkaBrokers == "" {
		return nil, nil
	}

	brokerList := splitBrokers(cfg.KafkaBrokers)
	producer, err := kafka.NewProducer(brokerList, kafka.WithClientID(cfg.KafkaClientID))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithFields(log.Fields{
		"brokers":   brokerList,
		"client_id": cfg.KafkaClientID,
	}).Info("kafka producer initialized")
	return producer, nil
}

// splitBrokers разбирает список брокеров через запятую, отбрасывая пустые
// элементы и пробелы вокруг адресов.
func splitBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if addr := strings.TrimSpace(part); addr != "" {
			result = append(result, addr)
		}
	}
	return result
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
