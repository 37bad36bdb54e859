package identity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var patientCols = `id, title, first_name, middle_name, last_name, gender, date_of_birth, email,
	preferred_contact_number, alternative_contact_number,
	address_line1, address_line2, address_line3, postcode, country, ` + lifecycle.Columns

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (
			title, first_name, middle_name, last_name, gender, date_of_birth, email,
			preferred_contact_number, alternative_contact_number,
			address_line1, address_line2, address_line3, postcode, country,
			created_by, updated_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
		RETURNING id, created_at, updated_at`,
		p.Title, p.FirstName, p.MiddleName, p.LastName, p.Gender, p.DateOfBirth, p.Email,
		p.PreferredContactNumber, p.AlternativeContactNumber,
		p.AddressLine1, p.AddressLine2, p.AddressLine3, p.Postcode, p.Country,
		p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	p.UpdatedBy = p.CreatedBy
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("patient", id)
	}
	return p, err
}

func (r *patientRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE `+lifecycle.ActiveClause("")+`
		ORDER BY id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *patientRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "patient", id, reason, by)
}

func (r *patientRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "patient", id, reason, by)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	dest := []any{
		&p.ID, &p.Title, &p.FirstName, &p.MiddleName, &p.LastName, &p.Gender, &p.DateOfBirth, &p.Email,
		&p.PreferredContactNumber, &p.AlternativeContactNumber,
		&p.AddressLine1, &p.AddressLine2, &p.AddressLine3, &p.Postcode, &p.Country,
	}
	if err := row.Scan(append(dest, lifecycle.Targets(&p.Status, &p.Audit)...)...); err != nil {
		return nil, err
	}
	return &p, nil
}
