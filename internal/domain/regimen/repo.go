package regimen

import "context"

// ConditionRepository stores condition rules. GetByID returns rows in any
// lifecycle state.
type ConditionRepository interface {
	Create(ctx context.Context, c *Condition) error
	GetByID(ctx context.Context, id int64) (*Condition, error)
	ListActive(ctx context.Context) ([]*Condition, error)
}

type FrequencyRepository interface {
	Create(ctx context.Context, f *Frequency) error
	GetByID(ctx context.Context, id int64) (*Frequency, error)
	ListActive(ctx context.Context) ([]*Frequency, error)
}

type ActionRepository interface {
	Create(ctx context.Context, a *Action) error
	GetByID(ctx context.Context, id int64) (*Action, error)
	ListActive(ctx context.Context) ([]*Action, error)
}

type RegimenRepository interface {
	Create(ctx context.Context, r *Regimen) error
	GetByID(ctx context.Context, id int64) (*Regimen, error)
	ListActive(ctx context.Context) ([]*Regimen, error)
}

// CategoryRepository stores regimen categories with their condition and
// action memberships. Reads return categories with both sets resolved.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id int64) (*Category, error)
	ListActive(ctx context.Context) ([]*Category, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
