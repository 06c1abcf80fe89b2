package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"card-advisor/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func TestUserServiceCreateUser(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, zap.NewNop())

	user, err := svc.CreateUser(context.Background(), " User@Example.com ", " Test ", "secret-pass")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.DisplayName != "Test" {
		t.Fatalf("expected trimmed display name, got %q", user.DisplayName)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret-pass" {
		t.Fatalf("expected hashed password")
	}

	stored, err := repo.GetByEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("expected user stored, got %v", err)
	}
	if stored.ID != user.ID {
		t.Fatalf("expected stored user to match")
	}
}

func TestUserServiceCreateUser_InvalidInput(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, zap.NewNop())

	if _, err := svc.CreateUser(context.Background(), "", "Test", "secret-pass"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for empty email, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), "not-an-email", "Test", "secret-pass"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail without @, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), "user@example.com", "Test", "short"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for short password, got %v", err)
	}
}

func TestUserServiceCreateUser_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, zap.NewNop())

	if _, err := svc.CreateUser(context.Background(), "user@example.com", "Test", "secret-pass"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), "USER@example.com", "Other", "secret-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, zap.NewNop())

	created, err := svc.CreateUser(context.Background(), "user@example.com", "Test", "secret-pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "User@Example.com", "secret-pass")
	if err != nil {
		t.Fatalf("expected auth success, got %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected authenticated user to match created one")
	}

	if _, err := svc.Authenticate(context.Background(), "user@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "missing@example.com", "secret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceGetByID(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, zap.NewNop())

	created, err := svc.CreateUser(context.Background(), "user@example.com", "Test", "secret-pass")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	user, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected user, got %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
