package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Coordinator is the only writer of account balances. Every entry point runs
// as one atomic unit against the store: the balance delta and the record write
// commit together or not at all, and units touching the same account are
// serialized by the account lock.
type Coordinator struct {
	store Store
	now   func() time.Time
}

// NewCoordinator builds a coordinator on top of a ledger store.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Charge credits coins onto an account and appends a CHARGE record. There is
// no upper bound on the resulting balance.
func (c *Coordinator) Charge(ctx context.Context, accountID string, amount int64) (Record, error) {
	if amount < 0 {
		return Record{}, ErrInvalidAmount
	}
	return c.create(ctx, Record{AccountID: accountID, Kind: KindCharge, Amount: amount})
}

// Use debits the book's price from the account and appends a USE record
// referencing the book. The balance precondition is re-checked under the
// account lock so that two concurrent purchases cannot both spend the same
// coins.
func (c *Coordinator) Use(ctx context.Context, accountID, bookID string, price int64) (Record, error) {
	if price < 0 {
		return Record{}, ErrInvalidAmount
	}

	var created Record
	err := c.store.Atomic(ctx, func(u Unit) error {
		balance, err := u.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if balance < price {
			return ErrInsufficientBalance
		}
		if _, err := u.AdjustBalance(ctx, accountID, -price); err != nil {
			return err
		}
		created, err = u.CreateRecord(ctx, Record{
			ID:        uuid.NewString(),
			AccountID: accountID,
			BookID:    bookID,
			Kind:      KindUse,
			Amount:    price,
			CreatedAt: c.now(),
		})
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return created, nil
}

// Adjust appends a manual correction record (plus or minus) outside the
// charge/use flows.
func (c *Coordinator) Adjust(ctx context.Context, accountID string, kind Kind, amount int64) (Record, error) {
	if kind != KindAdjustPlus && kind != KindAdjustMinus {
		return Record{}, ErrInvalidKind
	}
	if amount < 0 {
		return Record{}, ErrInvalidAmount
	}
	return c.create(ctx, Record{AccountID: accountID, Kind: kind, Amount: amount})
}

// Edit changes kind and amount of an existing record and reconciles the
// account balance in the same unit: the old effect is reversed, the record is
// rewritten, then the new effect is applied. No intermediate state is visible
// outside the unit.
func (c *Coordinator) Edit(ctx context.Context, recordID string, kind Kind, amount int64) (Record, error) {
	if !kind.Valid() {
		return Record{}, ErrInvalidKind
	}
	if amount < 0 {
		return Record{}, ErrInvalidAmount
	}

	var edited Record
	err := c.store.Atomic(ctx, func(u Unit) error {
		old, err := u.FindRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if _, err := u.LockAccount(ctx, old.AccountID); err != nil {
			return err
		}
		// Re-read under the lock: another edit may have landed between the
		// first read and acquiring the account.
		old, err = u.FindRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if _, err := u.AdjustBalance(ctx, old.AccountID, -old.Effect()); err != nil {
			return err
		}
		next := old
		next.Kind = kind
		next.Amount = amount
		if _, err := u.ReplaceRecord(ctx, next); err != nil {
			return err
		}
		if _, err := u.AdjustBalance(ctx, old.AccountID, next.Effect()); err != nil {
			return err
		}
		edited = next
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return edited, nil
}

// Delete rejects every deletion attempt. Ledger records are permanent; the
// supported correction path is Edit or a compensating Adjust record.
func (c *Coordinator) Delete(ctx context.Context, recordID string) error {
	return fmt.Errorf("delete record %s: %w", recordID, ErrDeletionNotAllowed)
}

// Balance returns the current coin balance for the account.
func (c *Coordinator) Balance(ctx context.Context, accountID string) (int64, error) {
	return c.store.Balance(ctx, accountID)
}

// RecordsFor lists the account's records in creation order.
func (c *Coordinator) RecordsFor(ctx context.Context, accountID string) ([]Record, error) {
	return c.store.RecordsFor(ctx, accountID)
}

// create applies the record's effect and persists it in one unit. Used for
// charges and adjustments, which have no precondition beyond a valid amount.
func (c *Coordinator) create(ctx context.Context, r Record) (Record, error) {
	var created Record
	err := c.store.Atomic(ctx, func(u Unit) error {
		if _, err := u.LockAccount(ctx, r.AccountID); err != nil {
			return err
		}
		if _, err := u.AdjustBalance(ctx, r.AccountID, r.Effect()); err != nil {
			return err
		}
		var err error
		r.ID = uuid.NewString()
		r.CreatedAt = c.now()
		created, err = u.CreateRecord(ctx, r)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return created, nil
}
