package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/docstore/memory"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestRepositoryEnqueueAndPull(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	msg, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.created",
		Payload:       []byte(`{"orderId":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("enqueue did not assign an id")
	}

	pending, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
	got := pending[0]
	if got.ID != msg.ID || got.EventType != "order.created" || got.AggregateID != "order-1" {
		t.Errorf("unexpected message %+v", got)
	}
	if string(got.Payload) != `{"orderId":"order-1"}` {
		t.Errorf("payload mismatch: %s", got.Payload)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 1 {
		t.Errorf("expected 1 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Error("oldest pending timestamp missing")
	}
}

func TestRepositoryMarkSentRemovesFromPending(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	msg, err := repo.Enqueue(ctx, domain.OutboxMessage{EventType: "order.created"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := repo.MarkSent(ctx, msg.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("sent message still pending: %+v", pending)
	}

	stats, _ := repo.Stats(ctx)
	if stats.PendingCount != 0 {
		t.Errorf("expected empty backlog, got %d", stats.PendingCount)
	}
}

func TestRepositoryMarkFailedCountsAttempts(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	msg, err := repo.Enqueue(ctx, domain.OutboxMessage{EventType: "order.cancelled"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := repo.MarkFailed(ctx, msg.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, _ := repo.PullPending(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("failed message still pending: %+v", pending)
	}

	doc, err := store.Get(ctx, CollectionOutbox, msg.ID)
	if err != nil {
		t.Fatalf("get outbox doc: %v", err)
	}
	status, _ := docstore.GetString(doc.Data, "status")
	if status != statusFailed {
		t.Errorf("expected status failed, got %s", status)
	}
	attempts, _ := docstore.GetInt(doc.Data, "attempts")
	if attempts != 1 {
		t.Errorf("expected 1 attempt recorded, got %d", attempts)
	}
}

func TestRepositoryMarkMissingMessage(t *testing.T) {
	repo := NewRepository(memory.NewStore())
	ctx := context.Background()

	if err := repo.MarkSent(ctx, "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.MarkFailed(ctx, "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnqueueTxAtomicWithDomainWrite(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	// Сорванная транзакция не оставляет следов ни в домене, ни в outbox.
	boom := errors.New("boom")
	err := store.RunTransaction(ctx, func(tx docstore.Tx) error {
		if err := tx.Set("orders", "order-1", map[string]any{"status": "pending"}); err != nil {
			return err
		}
		if _, err := repo.EnqueueTx(tx, domain.OutboxMessage{EventType: "order.created"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	pending, _ := repo.PullPending(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("aborted transaction leaked outbox message: %+v", pending)
	}
	if _, err := store.Get(ctx, "orders", "order-1"); !docstore.IsNotFound(err) {
		t.Errorf("aborted transaction leaked domain write: %v", err)
	}
}

func TestPullPendingOldestFirst(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, domain.OutboxMessage{EventType: "order.created"})
	if err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	second, err := repo.Enqueue(ctx, domain.OutboxMessage{EventType: "order.status_changed"})
	if err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	limited, err := repo.PullPending(ctx, 1)
	if err != nil {
		t.Fatalf("pull pending limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limited batch of 1, got %d", len(limited))
	}

	pending, err := repo.PullPending(ctx, 10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}
	seen := map[string]bool{pending[0].ID: true, pending[1].ID: true}
	if !seen[first.ID] || !seen[second.ID] {
		t.Errorf("expected both enqueued messages, got %s, %s", pending[0].ID, pending[1].ID)
	}
}
