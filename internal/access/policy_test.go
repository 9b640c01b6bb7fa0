package access

import (
	"context"
	"testing"

	"github.com/inkshelf/inkshelf/internal/identity"
	"github.com/inkshelf/inkshelf/internal/ledger"
)

func TestCanViewRequiresUseRecord(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	store.EnsureAccount(ctx, "user-a")
	ledger.SeedBalance(store, "user-a", 1_000)

	coord := ledger.NewCoordinator(store)
	if _, err := coord.Use(ctx, "user-a", "book-1", 300); err != nil {
		t.Fatalf("use: %v", err)
	}

	policy := NewPolicy(store)
	reader := identity.User{ID: "user-a"}

	ok, err := policy.CanView(ctx, reader, "book-1")
	if err != nil || !ok {
		t.Fatalf("expected purchaser to view book-1, ok=%v err=%v", ok, err)
	}
	ok, err = policy.CanView(ctx, reader, "book-2")
	if err != nil || ok {
		t.Fatalf("expected no access to unpurchased book, ok=%v err=%v", ok, err)
	}
}

func TestCanViewChargeGrantsNothing(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	store.EnsureAccount(ctx, "user-a")

	coord := ledger.NewCoordinator(store)
	if _, err := coord.Charge(ctx, "user-a", 10_000); err != nil {
		t.Fatalf("charge: %v", err)
	}

	policy := NewPolicy(store)
	ok, err := policy.CanView(ctx, identity.User{ID: "user-a"}, "book-1")
	if err != nil || ok {
		t.Fatalf("charge must not grant access, ok=%v err=%v", ok, err)
	}
}

func TestCanViewStaffBypass(t *testing.T) {
	store := ledger.NewMemoryStore()
	policy := NewPolicy(store)

	ok, err := policy.CanView(context.Background(), identity.User{ID: "staff-1", IsStaff: true}, "book-1")
	if err != nil || !ok {
		t.Fatalf("expected staff to view any book, ok=%v err=%v", ok, err)
	}
}
