package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "reader", Email: "reader@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.IsStaff {
		t.Fatalf("registered user must not be staff")
	}

	got, err := svc.Authenticate(ctx, Credentials{Username: "reader", Password: "correct horse"})
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Username: "reader", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "reader", Email: "a@example.com", Password: "password1"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "reader", Email: "b@example.com", Password: "password2"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestImportCSV(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	csvData := strings.Join([]string{
		"username,email,password,is_active",
		"alice,alice@example.com,password1,1",
		"bob,bob@example.com,password2,0",
	}, "\n")

	users, err := svc.ImportCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 imported users, got %d", len(users))
	}

	bob, err := repo.FindByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("find bob: %v", err)
	}
	if bob.IsActive {
		t.Fatalf("expected bob inactive")
	}
}

func TestImportCSVAllOrNothing(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"}); err != nil {
		t.Fatalf("seed register: %v", err)
	}

	csvData := strings.Join([]string{
		"username,email,password,is_active",
		"carol,carol@example.com,password3,1",
		"alice,dup@example.com,password4,1",
	}, "\n")

	if _, err := svc.ImportCSV(ctx, strings.NewReader(csvData)); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := repo.FindByUsername(ctx, "carol"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected carol not imported, got %v", err)
	}
}

func TestImportCSVRejectsBadRow(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	csvData := strings.Join([]string{
		"username,email,password,is_active",
		"dave,dave@example.com,password5,maybe",
	}, "\n")

	if _, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData)); err == nil {
		t.Fatalf("expected error for invalid is_active value")
	}
}
