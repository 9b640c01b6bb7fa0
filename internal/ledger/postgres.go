package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the ledger in PostgreSQL. The balance lives as a
// column on the users table and is only ever touched inside a transaction
// holding the user's row lock, so concurrent units on one account serialize
// at the database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Atomic runs fn inside a database transaction. Any error from fn rolls the
// whole unit back.
func (s *PostgresStore) Atomic(ctx context.Context, fn func(Unit) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&postgresUnit{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EnsureAccount verifies the backing user row exists. Balances live on the
// users table, so provisioning happens with the user insert itself.
func (s *PostgresStore) EnsureAccount(ctx context.Context, accountID string) error {
	_, err := s.Balance(ctx, accountID)
	return err
}

// Balance returns the account's current coin balance.
func (s *PostgresStore) Balance(ctx context.Context, accountID string) (int64, error) {
	userID, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	if err := s.db.QueryRow(ctx, `SELECT coin_balance FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// RecordsFor lists the account's transaction records in creation order.
func (s *PostgresStore) RecordsFor(ctx context.Context, accountID string) ([]Record, error) {
	userID, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT id, user_id, COALESCE(book_id::text, ''), kind, amount, created_at
        FROM transaction_records WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r      Record
			id     uuid.UUID
			userID uuid.UUID
		)
		if err := rows.Scan(&id, &userID, &r.BookID, &r.Kind, &r.Amount, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ID = id.String()
		r.AccountID = userID.String()
		records = append(records, r)
	}
	return records, rows.Err()
}

// FindRecord fetches a single record by id.
func (s *PostgresStore) FindRecord(ctx context.Context, id string) (Record, error) {
	return findRecord(ctx, s.db, id, false)
}

// HasUse reports whether the account holds a completed USE record for the book.
func (s *PostgresStore) HasUse(ctx context.Context, accountID, bookID string) (bool, error) {
	userID, err := uuid.Parse(accountID)
	if err != nil {
		return false, nil
	}
	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS (
        SELECT 1 FROM transaction_records WHERE user_id = $1 AND book_id = $2 AND kind = $3
    )`, userID, bookUUID, KindUse).Scan(&exists)
	return exists, err
}

type postgresUnit struct {
	tx pgx.Tx
}

func (u *postgresUnit) LockAccount(ctx context.Context, accountID string) (int64, error) {
	userID, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	if err := u.tx.QueryRow(ctx, `SELECT coin_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (u *postgresUnit) AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error) {
	userID, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	err = u.tx.QueryRow(ctx, `UPDATE users SET coin_balance = coin_balance + $1 WHERE id = $2
        RETURNING coin_balance`, delta, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return balance, err
}

func (u *postgresUnit) CreateRecord(ctx context.Context, r Record) (Record, error) {
	recordID, err := uuid.Parse(r.ID)
	if err != nil {
		recordID = uuid.New()
		r.ID = recordID.String()
	}
	userID, err := uuid.Parse(r.AccountID)
	if err != nil {
		return Record{}, ErrAccountNotFound
	}
	var bookID *uuid.UUID
	if r.BookID != "" {
		parsed, err := uuid.Parse(r.BookID)
		if err != nil {
			return Record{}, ErrRecordNotFound
		}
		bookID = &parsed
	}
	_, err = u.tx.Exec(ctx, `INSERT INTO transaction_records (id, user_id, book_id, kind, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, recordID, userID, bookID, r.Kind, r.Amount, r.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func (u *postgresUnit) FindRecord(ctx context.Context, id string) (Record, error) {
	return findRecord(ctx, u.tx, id, true)
}

func (u *postgresUnit) ReplaceRecord(ctx context.Context, r Record) (Record, error) {
	old, err := findRecord(ctx, u.tx, r.ID, true)
	if err != nil {
		return Record{}, err
	}
	recordID, err := uuid.Parse(r.ID)
	if err != nil {
		return Record{}, ErrRecordNotFound
	}
	if _, err := u.tx.Exec(ctx, `UPDATE transaction_records SET kind = $1, amount = $2 WHERE id = $3`,
		r.Kind, r.Amount, recordID); err != nil {
		return Record{}, err
	}
	return old, nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findRecord(ctx context.Context, q queryer, id string, forUpdate bool) (Record, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrRecordNotFound
	}
	query := `SELECT id, user_id, COALESCE(book_id::text, ''), kind, amount, created_at
        FROM transaction_records WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		r      Record
		rowID  uuid.UUID
		userID uuid.UUID
	)
	if err := q.QueryRow(ctx, query, recordID).Scan(&rowID, &userID, &r.BookID, &r.Kind, &r.Amount, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	r.ID = rowID.String()
	r.AccountID = userID.String()
	return r, nil
}
