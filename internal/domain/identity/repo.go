package identity

import "context"

// PatientRepository stores patients. GetByID returns rows in any lifecycle
// state.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
