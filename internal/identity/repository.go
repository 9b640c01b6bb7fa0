package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound indicates no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken indicates a unique-username violation.
var ErrUsernameTaken = errors.New("username already taken")

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	// CreateBatch inserts all users or none: any duplicate username aborts
	// the whole batch.
	CreateBatch(ctx context.Context, users []User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	// ListMembers returns non-staff users for the staff overview.
	ListMembers(ctx context.Context) ([]User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertUserSQL = `INSERT INTO users (id, username, email, password_hash, is_staff, is_active, coin_balance, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`

// Create inserts a new user with a zero coin balance.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, insertUserSQL,
		userID, user.Username, user.Email, user.PasswordHash, user.IsStaff, user.IsActive, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

// CreateBatch inserts users inside one transaction so a bad row aborts the import.
func (r *PostgresRepository) CreateBatch(ctx context.Context, users []User) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, user := range users {
		userID, err := uuid.Parse(user.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertUserSQL,
			userID, user.Username, user.Email, user.PasswordHash, user.IsStaff, user.IsActive, user.CreatedAt.UTC()); err != nil {
			if isUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return r.scanUser(r.db.QueryRow(ctx, `SELECT id, username, email, password_hash, is_staff, is_active, created_at
        FROM users WHERE id = $1`, userID))
}

// FindByUsername fetches a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT id, username, email, password_hash, is_staff, is_active, created_at
        FROM users WHERE username = $1`, username))
}

// ListMembers returns all non-staff users.
func (r *PostgresRepository) ListMembers(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, email, password_hash, is_staff, is_active, created_at
        FROM users WHERE is_staff = FALSE ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			u         User
			id        uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsActive, &createdAt); err != nil {
			return nil, err
		}
		u.ID = id.String()
		u.CreatedAt = createdAt.UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) scanUser(row pgx.Row) (User, error) {
	var (
		u         User
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsActive, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = createdAt.UTC()
	return u, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
