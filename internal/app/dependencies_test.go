package app

import (
	"context"
	"testing"
)

func TestNewDependenciesMemory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewDependencies: %v", err)
	}
	defer deps.Close()

	if deps.Store == nil {
		t.Fatal("store should be initialized")
	}
	if deps.Catalog == nil || deps.Orders == nil || deps.Users == nil {
		t.Error("domain services should be initialized")
	}
	if deps.OutboxRepo == nil {
		t.Error("outbox repository should be initialized")
	}
	if deps.Metrics == nil {
		t.Error("metrics should be initialized")
	}

	// Без Kafka worker не создаётся: события копятся в outbox.
	if deps.KafkaProducer != nil {
		t.Error("kafka producer should be nil without brokers")
	}
	if deps.OutboxWorker != nil {
		t.Error("outbox worker should be nil without kafka")
	}
}

func TestNewDependenciesUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoreDriver = "etcd"

	if _, err := NewDependencies(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}
