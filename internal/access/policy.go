package access

import (
	"context"

	"github.com/inkshelf/inkshelf/internal/identity"
	"github.com/inkshelf/inkshelf/internal/ledger"
)

// Policy answers content-visibility questions from purchase history. It reads
// the ledger directly and never mutates anything.
type Policy struct {
	store ledger.Store
}

// NewPolicy builds an access policy over the ledger store.
func NewPolicy(store ledger.Store) *Policy {
	return &Policy{store: store}
}

// CanView reports whether the user may read the book's chapters: staff always
// can, everyone else needs a USE record linking them to the book. Ownership
// follows from purchase history alone; the current balance is irrelevant and
// charge records grant nothing.
func (p *Policy) CanView(ctx context.Context, user identity.User, bookID string) (bool, error) {
	if user.IsStaff {
		return true, nil
	}
	return p.store.HasUse(ctx, user.ID, bookID)
}
