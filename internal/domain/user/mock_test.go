package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/lifecycle/lifecycletest"
)

type mockRepo struct {
	store  map[int64]*User
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.store {
		if !existing.IsVoided() && strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.store {
		if !u.IsVoided() && strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, lifecycle.ErrNotFound)
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.store {
		if u.IsActive() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepo) Void(_ context.Context, id int64, reason, by string) error {
	u, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("user", id)
	}
	if err := lifecycletest.Voidable("user", id, u.Status); err != nil {
		return err
	}
	u.Voided, u.VoidedReason, u.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func (m *mockRepo) Retire(_ context.Context, id int64, reason, by string) error {
	u, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("user", id)
	}
	if err := lifecycletest.Retirable("user", id, u.Status); err != nil {
		return err
	}
	u.Retired, u.RetiredReason, u.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, WithHashCost(bcrypt.MinCost)), repo
}

func addTestUser(svc *Service, username, password string) (*User, error) {
	u := &User{Username: username, FullName: "Test " + username, Password: password}
	return u, svc.AddUser(context.Background(), u)
}
