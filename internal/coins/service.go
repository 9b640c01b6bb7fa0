package coins

import (
	"context"
	"fmt"

	"github.com/inkshelf/inkshelf/internal/catalog"
	"github.com/inkshelf/inkshelf/internal/identity"
	"github.com/inkshelf/inkshelf/internal/ledger"
	"github.com/inkshelf/inkshelf/internal/notification"
)

// Service is the operation surface of the coin ledger for the web layer:
// staff charge and correct balances, readers purchase access and inspect
// their history. All balance mutation is delegated to the coordinator.
type Service struct {
	coord    *ledger.Coordinator
	catalog  *catalog.Service
	users    identity.Repository
	notifier notification.Notifier
}

// NewService wires the coin service.
func NewService(coord *ledger.Coordinator, cat *catalog.Service, users identity.Repository, notifier notification.Notifier) *Service {
	return &Service{coord: coord, catalog: cat, users: users, notifier: notifier}
}

// Charge credits coins onto a member's account (staff flow).
func (s *Service) Charge(ctx context.Context, accountID string, amount int64) (ledger.Record, error) {
	user, err := s.users.FindByID(ctx, accountID)
	if err != nil {
		return ledger.Record{}, err
	}

	record, err := s.coord.Charge(ctx, user.ID, amount)
	if err != nil {
		return ledger.Record{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindCoinCharge,
			Destination: user.ID,
			Body:        fmt.Sprintf("Your account was charged %d coins", amount),
		})
	}
	return record, nil
}

// PurchaseResult describes a completed purchase.
type PurchaseResult struct {
	Record  ledger.Record
	Book    catalog.Book
	Balance int64
}

// Purchase redeems coins for access to a book. The price is read from the
// catalog; the coordinator re-checks the balance under the account lock, so a
// decline (ledger.ErrInsufficientBalance) leaves every store untouched.
func (s *Service) Purchase(ctx context.Context, accountID, bookID string) (PurchaseResult, error) {
	book, err := s.catalog.Get(ctx, bookID)
	if err != nil {
		return PurchaseResult{}, err
	}

	record, err := s.coord.Use(ctx, accountID, book.ID, book.Price)
	if err != nil {
		return PurchaseResult{}, err
	}

	balance, err := s.coord.Balance(ctx, accountID)
	if err != nil {
		return PurchaseResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPurchase,
			Destination: accountID,
			Body:        fmt.Sprintf("You purchased %q for %d coins", book.Title, book.Price),
		})
	}
	return PurchaseResult{Record: record, Book: book, Balance: balance}, nil
}

// Adjust appends a manual correction record (staff flow).
func (s *Service) Adjust(ctx context.Context, accountID string, kind ledger.Kind, amount int64) (ledger.Record, error) {
	if _, err := s.users.FindByID(ctx, accountID); err != nil {
		return ledger.Record{}, err
	}
	return s.coord.Adjust(ctx, accountID, kind, amount)
}

// Edit rewrites kind and amount of a record, reconciling the balance (staff flow).
func (s *Service) Edit(ctx context.Context, recordID string, kind ledger.Kind, amount int64) (ledger.Record, error) {
	return s.coord.Edit(ctx, recordID, kind, amount)
}

// Delete always fails with ledger.ErrDeletionNotAllowed. Records are permanent.
func (s *Service) Delete(ctx context.Context, recordID string) error {
	return s.coord.Delete(ctx, recordID)
}

// Balance returns the account's current coin balance.
func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.coord.Balance(ctx, accountID)
}

// History lists the account's transaction records in creation order.
func (s *Service) History(ctx context.Context, accountID string) ([]ledger.Record, error) {
	return s.coord.RecordsFor(ctx, accountID)
}
