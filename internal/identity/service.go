package identity

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when username or password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service manages the user lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures data required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a non-staff user with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	if len(input.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials against the stored hash.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !user.IsActive {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ImportCSV bulk-creates users from a CSV stream with a header row of
// username,email,password,is_active. The whole import is all-or-nothing: a
// malformed row or duplicate username aborts it and no user is created.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) ([]User, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"username", "email", "password", "is_active"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing column %q", required)
		}
	}

	var users []User
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		active, err := strconv.Atoi(row[col["is_active"]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid is_active: %w", line, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(row[col["password"]]), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		users = append(users, User{
			ID:           uuid.NewString(),
			Username:     row[col["username"]],
			Email:        row[col["email"]],
			PasswordHash: hash,
			IsActive:     active != 0,
			CreatedAt:    time.Now().UTC(),
		})
	}

	if err := s.repo.CreateBatch(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Members lists non-staff users for the staff overview.
func (s *Service) Members(ctx context.Context) ([]User, error) {
	return s.repo.ListMembers(ctx)
}
