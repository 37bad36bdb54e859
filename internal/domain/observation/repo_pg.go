package observation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

type observationRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &observationRepoPG{pool: pool}
}

func (r *observationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var obsSelect = `
	SELECT o.id, o.observation_date, o.concept_id, o.concept_value_id, o.int_value,
		o.string_value, o.date_time_value, o.encounter_id, e.encounter_date, e.patient_id, ` +
	lifecycle.ColumnsOf("o") + `
	FROM observation o
	JOIN encounter e ON e.id = o.encounter_id`

func (r *observationRepoPG) Create(ctx context.Context, o *Observation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO observation (
			observation_date, concept_id, concept_value_id, int_value,
			string_value, date_time_value, encounter_id, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, created_at, updated_at`,
		o.ObservationDate, o.ConceptID, o.ConceptValueID, o.IntValue,
		o.StringValue, o.DateTimeValue, o.EncounterID, o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	o.UpdatedBy = o.CreatedBy
	return nil
}

func (r *observationRepoPG) GetByID(ctx context.Context, id int64) (*Observation, error) {
	o, err := scanObservation(r.conn(ctx).QueryRow(ctx, obsSelect+` WHERE o.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("observation", id)
	}
	return o, err
}

func (r *observationRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*Observation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM observation WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}
	obs, err := r.list(ctx, obsSelect+`
		WHERE `+lifecycle.ActiveClause("o")+`
		ORDER BY o.id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	return obs, total, err
}

func (r *observationRepoPG) ListActiveByEncounter(ctx context.Context, encounterID int64) ([]*Observation, error) {
	return r.list(ctx, obsSelect+`
		WHERE o.encounter_id = $1 AND `+lifecycle.ActiveClause("o")+`
		ORDER BY o.observation_date, o.id`, encounterID)
}

func (r *observationRepoPG) list(ctx context.Context, query string, args ...any) ([]*Observation, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *observationRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "observation", id, reason, by)
}

func (r *observationRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "observation", id, reason, by)
}

func scanObservation(row pgx.Row) (*Observation, error) {
	var o Observation
	dest := []any{
		&o.ID, &o.ObservationDate, &o.ConceptID, &o.ConceptValueID, &o.IntValue,
		&o.StringValue, &o.DateTimeValue, &o.EncounterID, &o.EncounterDate, &o.PatientID,
	}
	if err := row.Scan(append(dest, lifecycle.Targets(&o.Status, &o.Audit)...)...); err != nil {
		return nil, err
	}
	return &o, nil
}
