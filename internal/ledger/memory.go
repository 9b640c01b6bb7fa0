package ledger

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.Mutex
	balances map[string]int64
	records  []Record
	byID     map[string]int
}

// NewMemoryStore creates a concurrency-safe in-memory ledger store useful for
// unit tests and dev mode. Atomic units are serialized by a single mutex and
// rolled back from a snapshot on failure.
func NewMemoryStore() Store {
	return &memoryStore{
		balances: make(map[string]int64),
		byID:     make(map[string]int),
	}
}

func (s *memoryStore) Atomic(_ context.Context, fn func(Unit) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapBalances := make(map[string]int64, len(s.balances))
	for k, v := range s.balances {
		snapBalances[k] = v
	}
	snapRecords := make([]Record, len(s.records))
	copy(snapRecords, s.records)
	snapByID := make(map[string]int, len(s.byID))
	for k, v := range s.byID {
		snapByID[k] = v
	}

	if err := fn(&memoryUnit{store: s}); err != nil {
		s.balances = snapBalances
		s.records = snapRecords
		s.byID = snapByID
		return err
	}
	return nil
}

func (s *memoryStore) EnsureAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.balances[accountID]; !exists {
		s.balances[accountID] = 0
	}
	return nil
}

func (s *memoryStore) Balance(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, exists := s.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (s *memoryStore) RecordsFor(_ context.Context, accountID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []Record
	for _, r := range s.records {
		if r.AccountID == accountID {
			records = append(records, r)
		}
	}
	return records, nil
}

func (s *memoryStore) FindRecord(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(id)
}

func (s *memoryStore) HasUse(_ context.Context, accountID, bookID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.AccountID == accountID && r.BookID == bookID && r.Kind == KindUse {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) find(id string) (Record, error) {
	idx, ok := s.byID[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return s.records[idx], nil
}

// memoryUnit operates on the store state directly; the store mutex held by
// Atomic provides both isolation and per-account serialization.
type memoryUnit struct {
	store *memoryStore
}

func (u *memoryUnit) LockAccount(_ context.Context, accountID string) (int64, error) {
	balance, exists := u.store.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (u *memoryUnit) AdjustBalance(_ context.Context, accountID string, delta int64) (int64, error) {
	balance, exists := u.store.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	balance += delta
	u.store.balances[accountID] = balance
	return balance, nil
}

func (u *memoryUnit) CreateRecord(_ context.Context, r Record) (Record, error) {
	if _, exists := u.store.byID[r.ID]; exists {
		return Record{}, ErrRecordNotFound
	}
	u.store.records = append(u.store.records, r)
	u.store.byID[r.ID] = len(u.store.records) - 1
	return r, nil
}

func (u *memoryUnit) FindRecord(_ context.Context, id string) (Record, error) {
	return u.store.find(id)
}

func (u *memoryUnit) ReplaceRecord(_ context.Context, r Record) (Record, error) {
	idx, ok := u.store.byID[r.ID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	old := u.store.records[idx]
	updated := old
	updated.Kind = r.Kind
	updated.Amount = r.Amount
	u.store.records[idx] = updated
	return old, nil
}
