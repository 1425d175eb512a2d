package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/store"
)

// makeTestUser creates a domain.User with sensible defaults for testing.
func makeTestUser(id, email string) *domain.User {
	now := time.Now()
	return &domain.User{
		Record: domain.Record{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        email,
		PasswordHash: "$argon2id$fake",
		DisplayName:  "Test User",
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-1", "reader@example.com")
	u.Bio = "Reads everything."
	u.AvatarURL = "/files/avatars/user-1.png"

	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	if got.Email != u.Email {
		t.Errorf("Email: got %q, want %q", got.Email, u.Email)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("PasswordHash: got %q, want %q", got.PasswordHash, u.PasswordHash)
	}
	if got.DisplayName != u.DisplayName {
		t.Errorf("DisplayName: got %q, want %q", got.DisplayName, u.DisplayName)
	}
	if got.Bio != u.Bio {
		t.Errorf("Bio: got %q, want %q", got.Bio, u.Bio)
	}
	if got.AvatarURL != u.AvatarURL {
		t.Errorf("AvatarURL: got %q, want %q", got.AvatarURL, u.AvatarURL)
	}
	if !got.LastLoginAt.IsZero() {
		t.Error("LastLoginAt: got non-zero for never-logged-in user")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "reader@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Email uniqueness is case-insensitive.
	err := s.CreateUser(ctx, makeTestUser("user-2", "READER@example.com"))
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.ErrAlreadyExists.Code {
		t.Errorf("expected already-exists error, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "reader@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "reader@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want user-1", got.ID)
	}

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.ErrNotFound.Code {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-1", "reader@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u.DisplayName = "Renamed"
	u.Bio = "New bio."
	u.Touch()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, _ := s.GetUser(ctx, "user-1")
	if got.DisplayName != "Renamed" || got.Bio != "New bio." {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestTouchLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "reader@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := s.TouchLastLogin(ctx, "user-1", at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}

	got, _ := s.GetUser(ctx, "user-1")
	if !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, at)
	}
}

func TestCountUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 0 {
		t.Errorf("empty store: got %d users", n)
	}

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if err := s.CreateUser(ctx, makeTestUser("user-"+email, email)); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	n, err = s.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d users, want 2", n)
	}
}
