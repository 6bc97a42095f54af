package app

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Драйверы документного хранилища.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Config описывает настройки запуска витрины. Значения читаются из
// окружения (и .env, если присутствует).
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR"    default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel    string `envconfig:"LOG_LEVEL"    default:"info"`

	// StoreDriver выбирает реализацию хранилища: memory или postgres.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	// AutoMigrate применяет недостающие миграции при старте postgres-хранилища.
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"true"`

	// KafkaBrokers — список брокеров через запятую; пустое значение
	// отключает публикацию доменных событий.
	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	// KafkaClientID — client.id producer'а, виден брокерам в квотах и логах.
	KafkaClientID string `envconfig:"KAFKA_CLIENT_ID" default:"storefront"`

	// PlaceRetryAttempts — попытки оформления заказа при конфликте
	// транзакции на стороне API; 0 означает одну попытку.
	PlaceRetryAttempts int `envconfig:"PLACE_RETRY_ATTEMPTS" default:"0"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE"    default:"100"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS"  default:"3"`
}

// DefaultConfig возвращает конфигурацию со значениями по умолчанию,
// без чтения окружения.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		LogLevel:           "info",
		StoreDriver:        StoreDriverMemory,
		AutoMigrate:        true,
		KafkaClientID:      "storefront",
		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
	}
}

// LoadConfig читает конфигурацию из .env и переменных окружения.
func LoadConfig(logger *log.Entry) (Config, error) {
	if logger == nil {
		logger = log.WithField("component", "config")
	}

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Warn("failed to load .env file, continuing")
		}
	} else {
		logger.Info("configuration loaded from .env file")
	}

	// Переменные окружения читаются с префиксом STOREFRONT_, например
	// STOREFRONT_HTTP_ADDR. Имя без префикса работает как fallback.
	var cfg Config
	if err := envconfig.Process("storefront", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
