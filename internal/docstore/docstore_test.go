package docstore

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	Store
	errs []error
	runs int
}

func (s *fakeStore) RunTransaction(_ context.Context, _ func(tx Tx) error) error {
	err := s.errs[s.runs%len(s.errs)]
	s.runs++
	return err
}

func TestRunInTxWithRetrySucceedsAfterConflict(t *testing.T) {
	store := &fakeStore{errs: []error{ErrTxConflict, ErrTxConflict, nil}}

	err := RunInTxWithRetry(context.Background(), store, 3, func(Tx) error { return nil })
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if store.runs != 3 {
		t.Errorf("expected 3 attempts, got %d", store.runs)
	}
}

func TestRunInTxWithRetryExhaustsAttempts(t *testing.T) {
	store := &fakeStore{errs: []error{ErrTxConflict}}

	err := RunInTxWithRetry(context.Background(), store, 2, func(Tx) error { return nil })
	if !IsConflict(err) {
		t.Fatalf("expected ErrTxConflict, got %v", err)
	}
	if store.runs != 2 {
		t.Errorf("expected 2 attempts, got %d", store.runs)
	}
}

func TestRunInTxWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{errs: []error{boom}}

	err := RunInTxWithRetry(context.Background(), store, 5, func(Tx) error { return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if store.runs != 1 {
		t.Errorf("expected single attempt, got %d", store.runs)
	}
}

func TestRunInTxWithRetryNormalizesAttempts(t *testing.T) {
	store := &fakeStore{errs: []error{ErrTxConflict}}

	_ = RunInTxWithRetry(context.Background(), store, 0, func(Tx) error { return nil })
	if store.runs != 1 {
		t.Errorf("attempts<1 must mean a single attempt, got %d", store.runs)
	}
}

func TestRunInTxWithRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &fakeStore{errs: []error{ErrTxConflict}}

	err := RunInTxWithRetry(ctx, store, 5, func(Tx) error { return nil })
	if !IsConflict(err) {
		t.Fatalf("expected conflict to surface, got %v", err)
	}
	if store.runs != 1 {
		t.Errorf("expected no retries after cancellation, got %d attempts", store.runs)
	}
}
