package episode

import "context"

type Repository interface {
	Create(ctx context.Context, ep *Episode) error
	GetByID(ctx context.Context, id int64) (*Episode, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Episode, int, error)
	ListActiveByEncounter(ctx context.Context, encounterID int64) ([]*Episode, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
