package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

// ErrInvalidCredentials covers unknown users, inactive users and wrong
// passwords alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// DefaultRole is granted to users created without one.
const DefaultRole = auth.RoleClinician

type Service struct {
	repo Repository
	cost int
	// dummy is hashed against for unknown usernames.
	dummy []byte
}

type Option func(*Service)

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	s.dummy, _ = bcrypt.GenerateFromPassword([]byte("regimen"), s.cost)
	return s
}

// AddUser hashes the password of u and stores it. The plain password is
// cleared before returning.
func (s *Service) AddUser(ctx context.Context, u *User) error {
	if err := validation.Struct(u); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
	if err != nil {
		return err
	}

	u.ID = 0
	u.Status = lifecycle.Status{}
	u.Password = ""
	u.PasswordHash = string(hash)
	if u.Role == "" {
		u.Role = DefaultRole
	}
	u.CreatedBy = auth.ActorFromContext(ctx)

	if err := s.repo.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return validation.New("username", "is already in use")
		}
		return err
	}
	return nil
}

func (s *Service) GetActiveUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("user", id, u.Status); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListActiveUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireUser(ctx context.Context, id int64) error {
	return s.repo.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}

// Authenticate returns the active user matching the credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
