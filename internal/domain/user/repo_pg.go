package user

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var userCols = `id, username, full_name, password_hash, role, ` + lifecycle.Columns

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO application_user (username, full_name, password_hash, role, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at`,
		u.Username, u.FullName, u.PasswordHash, u.Role, u.CreatedBy,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.UpdatedBy = u.CreatedBy
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM application_user WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("user", id)
	}
	return u, err
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `
		SELECT `+userCols+` FROM application_user
		WHERE lower(username) = lower($1) AND voided = 0`, username))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("user %q: %w", username, lifecycle.ErrNotFound)
	}
	return u, err
}

func (r *userRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM application_user WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM application_user
		WHERE `+lifecycle.ActiveClause("")+`
		ORDER BY id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *userRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "application_user", id, reason, by)
}

func (r *userRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "application_user", id, reason, by)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	dest := append([]any{&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role},
		lifecycle.Targets(&u.Status, &u.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}
