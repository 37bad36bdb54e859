package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

func TestAddUser_HashesPassword(t *testing.T) {
	svc, repo := newTestService()
	ctx := auth.WithIdentity(context.Background(), "root", []string{auth.RoleAdmin})
	u := &User{Username: "jdoe", FullName: "Jane Doe", Password: "s3cret"}

	if err := svc.AddUser(ctx, u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := repo.store[u.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "s3cret" {
		t.Fatalf("expected a bcrypt hash, got %q", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}
	if u.Password != "" || stored.Password != "" {
		t.Error("plain password must be cleared")
	}
	if stored.Role != DefaultRole || stored.CreatedBy != "root" {
		t.Errorf("unexpected defaults: role %q created_by %q", stored.Role, stored.CreatedBy)
	}
}

func TestAddUser_Validation(t *testing.T) {
	tests := []struct {
		name string
		u    User
	}{
		{"blank username", User{Username: " ", FullName: "A", Password: "p"}},
		{"blank full name", User{Username: "a", Password: "p"}},
		{"blank password", User{Username: "a", FullName: "A"}},
		{"password too long", User{Username: "a", FullName: "A", Password: strings.Repeat("x", 73)}},
		{"unknown role", User{Username: "a", FullName: "A", Password: "p", Role: "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			u := tt.u
			if err := svc.AddUser(context.Background(), &u); !errors.Is(err, validation.ErrInvalid) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(repo.store) != 0 {
				t.Error("user must not be stored")
			}
		})
	}
}

func TestAddUser_DuplicateUsername(t *testing.T) {
	svc, repo := newTestService()
	if _, err := addTestUser(svc, "jdoe", "pw"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := addTestUser(svc, "JDoe", "pw")
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Fields[0].Field != "username" {
		t.Fatalf("expected username validation error, got %v", err)
	}

	// A voided account frees its username.
	repo.store[1].Voided = lifecycle.On
	if _, err := addTestUser(svc, "jdoe", "pw"); err != nil {
		t.Errorf("expected reuse after void, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	_, _ = addTestUser(svc, "alice", "right")
	_, _ = addTestUser(svc, "bob", "right")
	repo.store[2].Retired = lifecycle.On

	u, err := svc.Authenticate(ctx, "ALICE", "right")
	if err != nil || u.ID != 1 {
		t.Fatalf("expected alice, got %+v / %v", u, err)
	}

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "carol", "right"},
		{"retired user", "bob", "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tt.username, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestUserLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = addTestUser(svc, "alice", "pw")
	_, _ = addTestUser(svc, "bob", "pw")

	if err := svc.RetireUser(ctx, 1); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if _, err := svc.GetActiveUser(ctx, 1); !errors.Is(err, lifecycle.ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
	if err := svc.DeleteUser(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetActiveUser(ctx, 2); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteUser(ctx, 2); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	users, total, err := svc.ListActiveUsers(ctx, 0, 0)
	if err != nil || total != 0 || len(users) != 0 {
		t.Errorf("expected no active users, got %d (%v)", total, err)
	}
}
