package ledger

// SeedBalance is a test helper that sets an account balance directly when
// using the in-memory store, bypassing the coordinator.
func SeedBalance(s Store, accountID string, amount int64) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[accountID] = amount
	}
}
