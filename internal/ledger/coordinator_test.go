package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func newTestCoordinator(t *testing.T, accounts ...string) (*Coordinator, Store) {
	t.Helper()
	store := NewMemoryStore()
	ctx := context.Background()
	for _, a := range accounts {
		if err := store.EnsureAccount(ctx, a); err != nil {
			t.Fatalf("ensure account %s: %v", a, err)
		}
	}
	return NewCoordinator(store), store
}

func TestChargeCreditsBalance(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")
	ctx := context.Background()

	rec, err := coord.Charge(ctx, "user-a", 300)
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if rec.Kind != KindCharge || rec.Amount != 300 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ID == "" {
		t.Fatalf("expected record id to be assigned")
	}

	balance, err := coord.Balance(ctx, "user-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 300 {
		t.Fatalf("expected balance 300, got %d", balance)
	}
}

func TestChargeRejectsNegativeAmount(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")

	if _, err := coord.Charge(context.Background(), "user-a", -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	records, _ := coord.RecordsFor(context.Background(), "user-a")
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestBalanceMatchesSumOfEffects(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")
	ctx := context.Background()

	if _, err := coord.Charge(ctx, "user-a", 500); err != nil {
		t.Fatalf("charge: %v", err)
	}
	if _, err := coord.Use(ctx, "user-a", "book-1", 120); err != nil {
		t.Fatalf("use: %v", err)
	}
	if _, err := coord.Adjust(ctx, "user-a", KindAdjustPlus, 40); err != nil {
		t.Fatalf("adjust plus: %v", err)
	}
	if _, err := coord.Adjust(ctx, "user-a", KindAdjustMinus, 15); err != nil {
		t.Fatalf("adjust minus: %v", err)
	}

	records, err := coord.RecordsFor(ctx, "user-a")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	var sum int64
	for _, r := range records {
		sum += r.Effect()
	}

	balance, err := coord.Balance(ctx, "user-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != sum {
		t.Fatalf("balance %d does not match sum of effects %d", balance, sum)
	}
	if balance != 405 {
		t.Fatalf("expected balance 405, got %d", balance)
	}
}

func TestEditReconcilesBalance(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")
	ctx := context.Background()

	// Bring the account to 500 including a CHARGE 100 record.
	if _, err := coord.Charge(ctx, "user-a", 400); err != nil {
		t.Fatalf("charge 400: %v", err)
	}
	rec, err := coord.Charge(ctx, "user-a", 100)
	if err != nil {
		t.Fatalf("charge 100: %v", err)
	}

	// CHARGE 100 -> USE 60: reverse +100, apply -60.
	edited, err := coord.Edit(ctx, rec.ID, KindUse, 60)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Kind != KindUse || edited.Amount != 60 {
		t.Fatalf("unexpected edited record: %+v", edited)
	}

	balance, err := coord.Balance(ctx, "user-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 340 {
		t.Fatalf("expected balance 340 after edit, got %d", balance)
	}

	records, _ := coord.RecordsFor(ctx, "user-a")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestEditUnknownRecord(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")

	if _, err := coord.Edit(context.Background(), "missing", KindCharge, 10); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestEditRejectsInvalidKind(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")
	ctx := context.Background()

	rec, err := coord.Charge(ctx, "user-a", 100)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	if _, err := coord.Edit(ctx, rec.ID, Kind("REFUND"), 100); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	balance, _ := coord.Balance(ctx, "user-a")
	if balance != 100 {
		t.Fatalf("expected balance untouched at 100, got %d", balance)
	}
}

func TestUseRejectsOverdraft(t *testing.T) {
	coord, store := newTestCoordinator(t, "user-a")
	ctx := context.Background()
	SeedBalance(store, "user-a", 50)

	if _, err := coord.Use(ctx, "user-a", "book-1", 80); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := coord.Balance(ctx, "user-a")
	if balance != 50 {
		t.Fatalf("expected balance 50, got %d", balance)
	}
	records, _ := coord.RecordsFor(ctx, "user-a")
	if len(records) != 0 {
		t.Fatalf("expected no records after declined use, got %d", len(records))
	}
}

func TestDeleteAlwaysRejected(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")
	ctx := context.Background()

	rec, err := coord.Charge(ctx, "user-a", 200)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	if err := coord.Delete(ctx, rec.ID); !errors.Is(err, ErrDeletionNotAllowed) {
		t.Fatalf("expected ErrDeletionNotAllowed, got %v", err)
	}
	if err := coord.Delete(ctx, "does-not-exist"); !errors.Is(err, ErrDeletionNotAllowed) {
		t.Fatalf("expected ErrDeletionNotAllowed for unknown id, got %v", err)
	}

	balance, _ := coord.Balance(ctx, "user-a")
	if balance != 200 {
		t.Fatalf("expected balance 200, got %d", balance)
	}
	records, _ := coord.RecordsFor(ctx, "user-a")
	if len(records) != 1 {
		t.Fatalf("expected record to survive delete attempt, got %d records", len(records))
	}
}

func TestConcurrentUseSerialized(t *testing.T) {
	coord, store := newTestCoordinator(t, "user-a")
	ctx := context.Background()
	SeedBalance(store, "user-a", 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coord.Use(ctx, "user-a", fmt.Sprintf("book-%d", i), 100)
		}(i)
	}
	wg.Wait()

	var succeeded, declined int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientBalance):
			declined++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || declined != 1 {
		t.Fatalf("expected exactly one success and one decline, got %d/%d", succeeded, declined)
	}

	balance, _ := coord.Balance(ctx, "user-a")
	if balance != 0 {
		t.Fatalf("expected balance 0 after concurrent uses, got %d", balance)
	}
}

func TestConcurrentChargesKeepInvariant(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := coord.Charge(ctx, "user-a", 50); err != nil {
				t.Errorf("charge failed: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, _ := coord.Balance(ctx, "user-a")
	if balance != workers*50 {
		t.Fatalf("expected balance %d, got %d", workers*50, balance)
	}
	records, _ := coord.RecordsFor(ctx, "user-a")
	if len(records) != workers {
		t.Fatalf("expected %d records, got %d", workers, len(records))
	}
}

func TestAdjustValidatesKind(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")

	if _, err := coord.Adjust(context.Background(), "user-a", KindCharge, 10); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind for non-adjustment kind, got %v", err)
	}
}

func TestAtomicRollbackOnUnknownAccount(t *testing.T) {
	coord, _ := newTestCoordinator(t, "user-a")

	if _, err := coord.Charge(context.Background(), "ghost", 100); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
