package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByUsername matches case-insensitively among non-voided users.
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListActive(ctx context.Context, limit, offset int) ([]*User, int, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
