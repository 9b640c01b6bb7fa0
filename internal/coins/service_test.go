package coins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkshelf/inkshelf/internal/catalog"
	"github.com/inkshelf/inkshelf/internal/identity"
	"github.com/inkshelf/inkshelf/internal/ledger"
	"github.com/inkshelf/inkshelf/internal/notification"
)

type testNotifier struct {
	last notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

type fixture struct {
	svc    *Service
	store  ledger.Store
	users  identity.Repository
	reader identity.User
	book   catalog.Book
}

func newFixture(t *testing.T, notifier notification.Notifier) *fixture {
	t.Helper()
	ctx := context.Background()

	store := ledger.NewMemoryStore()
	users := identity.NewMemoryRepository()
	catalogSvc := catalog.NewService(catalog.NewMemoryRepository())

	reader := identity.User{
		ID:        uuid.NewString(),
		Username:  "reader",
		Email:     "reader@example.com",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(ctx, reader); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.EnsureAccount(ctx, reader.ID); err != nil {
		t.Fatalf("ensure account: %v", err)
	}

	cat, err := catalogSvc.CreateCategory(ctx, catalog.CategoryInput{DisplayOrder: 1, Name: "novels"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	book, err := catalogSvc.CreateBook(ctx, catalog.BookInput{
		CategoryID: cat.ID,
		Title:      "The Coin Garden",
		Abstract:   "a story about thrift",
		Price:      300,
		Published:  true,
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}

	svc := NewService(ledger.NewCoordinator(store), catalogSvc, users, notifier)
	return &fixture{svc: svc, store: store, users: users, reader: reader, book: book}
}

func TestChargeThenPurchase(t *testing.T) {
	notifier := &testNotifier{}
	f := newFixture(t, notifier)
	ctx := context.Background()

	if _, err := f.svc.Charge(ctx, f.reader.ID, 500); err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if notifier.last.Kind != notification.KindCoinCharge {
		t.Fatalf("expected charge notification, got %q", notifier.last.Kind)
	}

	res, err := f.svc.Purchase(ctx, f.reader.ID, f.book.ID)
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if res.Balance != 200 {
		t.Fatalf("expected balance 200, got %d", res.Balance)
	}
	if res.Record.Kind != ledger.KindUse || res.Record.Amount != 300 || res.Record.BookID != f.book.ID {
		t.Fatalf("unexpected use record: %+v", res.Record)
	}
	if notifier.last.Kind != notification.KindPurchase {
		t.Fatalf("expected purchase notification, got %q", notifier.last.Kind)
	}
}

func TestPurchaseInsufficientBalance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Charge(ctx, f.reader.ID, 50); err != nil {
		t.Fatalf("charge: %v", err)
	}

	if _, err := f.svc.Purchase(ctx, f.reader.ID, f.book.ID); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := f.svc.Balance(ctx, f.reader.ID)
	if balance != 50 {
		t.Fatalf("expected balance unchanged at 50, got %d", balance)
	}
	history, _ := f.svc.History(ctx, f.reader.ID)
	if len(history) != 1 {
		t.Fatalf("expected only the charge record, got %d records", len(history))
	}
}

func TestPurchaseUnknownBook(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.Purchase(context.Background(), f.reader.ID, uuid.NewString()); !errors.Is(err, catalog.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestChargeUnknownAccount(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.Charge(context.Background(), uuid.NewString(), 100); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEditReconciles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Charge(ctx, f.reader.ID, 400); err != nil {
		t.Fatalf("charge 400: %v", err)
	}
	rec, err := f.svc.Charge(ctx, f.reader.ID, 100)
	if err != nil {
		t.Fatalf("charge 100: %v", err)
	}

	if _, err := f.svc.Edit(ctx, rec.ID, ledger.KindUse, 60); err != nil {
		t.Fatalf("edit: %v", err)
	}

	balance, _ := f.svc.Balance(ctx, f.reader.ID)
	if balance != 340 {
		t.Fatalf("expected balance 340 after edit, got %d", balance)
	}
}

func TestDeleteAlwaysRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	rec, err := f.svc.Charge(ctx, f.reader.ID, 100)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	if err := f.svc.Delete(ctx, rec.ID); !errors.Is(err, ledger.ErrDeletionNotAllowed) {
		t.Fatalf("expected ErrDeletionNotAllowed, got %v", err)
	}
	history, _ := f.svc.History(ctx, f.reader.ID)
	if len(history) != 1 {
		t.Fatalf("expected record to remain, got %d records", len(history))
	}
}
