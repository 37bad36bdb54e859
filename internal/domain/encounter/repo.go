package encounter

import "context"

type Repository interface {
	Create(ctx context.Context, enc *Encounter) error
	GetByID(ctx context.Context, id int64) (*Encounter, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Encounter, int, error)
	ListActiveByPatient(ctx context.Context, patientID int64) ([]*Encounter, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
