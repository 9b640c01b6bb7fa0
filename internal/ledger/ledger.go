package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientBalance signals a declined purchase: the account cannot
	// cover the requested amount. No state is mutated when it is returned.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDeletionNotAllowed is returned for every attempt to delete a
	// transaction record. Records are permanent once written.
	ErrDeletionNotAllowed = errors.New("transaction records cannot be deleted")

	// ErrRecordNotFound indicates the referenced transaction record does not exist.
	ErrRecordNotFound = errors.New("transaction record not found")

	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount rejects negative amounts before any store interaction.
	ErrInvalidAmount = errors.New("amount must be non-negative")

	// ErrInvalidKind rejects unknown transaction kinds.
	ErrInvalidKind = errors.New("invalid transaction kind")
)

// Kind classifies a transaction record.
type Kind string

const (
	// KindCharge credits coins onto an account (staff top-up).
	KindCharge Kind = "CHARGE"
	// KindUse debits coins in exchange for access to a book.
	KindUse Kind = "USE"
	// KindAdjustPlus is a manual correction that credits coins.
	KindAdjustPlus Kind = "ADJUST_PLUS"
	// KindAdjustMinus is a manual correction that debits coins.
	KindAdjustMinus Kind = "ADJUST_MINUS"
)

// Valid reports whether k is one of the known transaction kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCharge, KindUse, KindAdjustPlus, KindAdjustMinus:
		return true
	}
	return false
}

// Effect returns the signed balance delta a record of kind k with the given
// amount contributes to its account.
func (k Kind) Effect(amount int64) int64 {
	switch k {
	case KindCharge, KindAdjustPlus:
		return amount
	case KindUse, KindAdjustMinus:
		return -amount
	}
	return 0
}

// Record is a single entry in the coin ledger. Records are append-only with
// one exception: an authorized edit may change kind and amount, and the
// coordinator reconciles the account balance when it does.
type Record struct {
	ID        string
	AccountID string
	BookID    string // empty for charges and adjustments
	Kind      Kind
	Amount    int64
	CreatedAt time.Time
}

// Effect returns the record's signed contribution to its account balance.
func (r Record) Effect() int64 {
	return r.Kind.Effect(r.Amount)
}

// Unit is the view of the store available inside an atomic unit. Balance
// mutations happen only here, never through Store directly.
type Unit interface {
	// LockAccount reads the account balance and serializes every other unit
	// touching the same account until this unit finishes.
	LockAccount(ctx context.Context, accountID string) (int64, error)

	// AdjustBalance applies a signed delta and returns the new balance.
	// Callers must hold the account lock.
	AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error)

	// CreateRecord persists a new record and returns it with its assigned id.
	CreateRecord(ctx context.Context, r Record) (Record, error)

	// FindRecord fetches the current state of a record for reconciliation.
	FindRecord(ctx context.Context, id string) (Record, error)

	// ReplaceRecord overwrites kind and amount of an existing record,
	// returning the stored state prior to the write.
	ReplaceRecord(ctx context.Context, r Record) (Record, error)
}

// Store defines the contract implemented by ledger backends (Postgres in
// production, in-memory for tests). Atomic runs fn as a single all-or-nothing
// unit: if fn returns an error every mutation made through the Unit is
// discarded.
type Store interface {
	Atomic(ctx context.Context, fn func(Unit) error) error

	// EnsureAccount guarantees a balance exists for the account. Called when
	// an account is provisioned; existing balances are left untouched.
	EnsureAccount(ctx context.Context, accountID string) error

	Balance(ctx context.Context, accountID string) (int64, error)
	RecordsFor(ctx context.Context, accountID string) ([]Record, error)
	FindRecord(ctx context.Context, id string) (Record, error)
	// HasUse reports whether a USE record links the account and the book.
	HasUse(ctx context.Context, accountID, bookID string) (bool, error)
}
