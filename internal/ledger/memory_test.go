package ledger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreAtomicRollback(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.EnsureAccount(ctx, "user-a"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	SeedBalance(store, "user-a", 1_000)

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(u Unit) error {
		if _, err := u.AdjustBalance(ctx, "user-a", -400); err != nil {
			return err
		}
		if _, err := u.CreateRecord(ctx, Record{
			ID:        "rec-1",
			AccountID: "user-a",
			Kind:      KindUse,
			Amount:    400,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected unit error to propagate, got %v", err)
	}

	balance, _ := store.Balance(ctx, "user-a")
	if balance != 1_000 {
		t.Fatalf("expected balance restored to 1000, got %d", balance)
	}
	if _, err := store.FindRecord(ctx, "rec-1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected record rolled back, got %v", err)
	}
}

func TestMemoryStoreHasUse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.EnsureAccount(ctx, "user-a")
	SeedBalance(store, "user-a", 500)

	coord := NewCoordinator(store)
	if _, err := coord.Use(ctx, "user-a", "book-1", 200); err != nil {
		t.Fatalf("use: %v", err)
	}
	if _, err := coord.Charge(ctx, "user-a", 100); err != nil {
		t.Fatalf("charge: %v", err)
	}

	ok, err := store.HasUse(ctx, "user-a", "book-1")
	if err != nil || !ok {
		t.Fatalf("expected use record for book-1, ok=%v err=%v", ok, err)
	}
	ok, err = store.HasUse(ctx, "user-a", "book-2")
	if err != nil || ok {
		t.Fatalf("expected no use record for book-2, ok=%v err=%v", ok, err)
	}
}
