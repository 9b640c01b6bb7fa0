package identity

import "time"

// User is a registered account. Staff users manage the catalog and coin
// balances; regular users purchase and read content. The coin balance itself
// is owned by the ledger and never mutated through this package.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
}

// Credentials carries a login request.
type Credentials struct {
	Username string
	Password string
}
