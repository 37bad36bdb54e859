package observation

import "context"

type Repository interface {
	Create(ctx context.Context, o *Observation) error
	GetByID(ctx context.Context, id int64) (*Observation, error)
	// ListActive returns active observations by id; limit 0 means all.
	ListActive(ctx context.Context, limit, offset int) ([]*Observation, int, error)
	ListActiveByEncounter(ctx context.Context, encounterID int64) ([]*Observation, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
