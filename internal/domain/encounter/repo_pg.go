package encounter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

type encounterRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &encounterRepoPG{pool: pool}
}

func (r *encounterRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var encCols = `id, encounter_type, encounter_date, patient_id, ` + lifecycle.Columns

func (r *encounterRepoPG) Create(ctx context.Context, enc *Encounter) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO encounter (encounter_type, encounter_date, patient_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at`,
		int16(enc.EncounterType), enc.EncounterDate, enc.PatientID, enc.CreatedBy,
	).Scan(&enc.ID, &enc.CreatedAt, &enc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert encounter: %w", err)
	}
	enc.UpdatedBy = enc.CreatedBy
	return nil
}

func (r *encounterRepoPG) GetByID(ctx context.Context, id int64) (*Encounter, error) {
	enc, err := scanEncounter(r.conn(ctx).QueryRow(ctx, `SELECT `+encCols+` FROM encounter WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("encounter", id)
	}
	return enc, err
}

func (r *encounterRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*Encounter, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}
	encs, err := r.list(ctx, `
		SELECT `+encCols+` FROM encounter
		WHERE `+lifecycle.ActiveClause("")+`
		ORDER BY id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	return encs, total, err
}

func (r *encounterRepoPG) ListActiveByPatient(ctx context.Context, patientID int64) ([]*Encounter, error) {
	return r.list(ctx, `
		SELECT `+encCols+` FROM encounter
		WHERE patient_id = $1 AND `+lifecycle.ActiveClause("")+`
		ORDER BY encounter_date DESC, id`, patientID)
}

func (r *encounterRepoPG) list(ctx context.Context, query string, args ...any) ([]*Encounter, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var encs []*Encounter
	for rows.Next() {
		enc, err := scanEncounter(rows)
		if err != nil {
			return nil, err
		}
		encs = append(encs, enc)
	}
	return encs, rows.Err()
}

func (r *encounterRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "encounter", id, reason, by)
}

func (r *encounterRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "encounter", id, reason, by)
}

func scanEncounter(row pgx.Row) (*Encounter, error) {
	var enc Encounter
	var encType int16
	dest := append([]any{&enc.ID, &encType, &enc.EncounterDate, &enc.PatientID},
		lifecycle.Targets(&enc.Status, &enc.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	enc.EncounterType = Type(encType)
	return &enc, nil
}
