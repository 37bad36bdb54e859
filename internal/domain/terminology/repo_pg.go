package terminology

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// -- Concept Repository --

type conceptRepoPG struct {
	pool *pgxpool.Pool
}

func NewConceptRepo(pool *pgxpool.Pool) ConceptRepository {
	return &conceptRepoPG{pool: pool}
}

func (r *conceptRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var conceptCols = `id, name, source, cui, ` + lifecycle.Columns

func (r *conceptRepoPG) Create(ctx context.Context, c *Concept) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO concept (name, source, cui, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Source, c.CUI, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert concept: %w", err)
	}
	c.UpdatedBy = c.CreatedBy
	return nil
}

func (r *conceptRepoPG) GetByID(ctx context.Context, id int64) (*Concept, error) {
	c, err := scanConcept(r.conn(ctx).QueryRow(ctx, `SELECT `+conceptCols+` FROM concept WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("concept", id)
	}
	return c, err
}

// GetByName prefers a non-voided row when a name has been reused.
func (r *conceptRepoPG) GetByName(ctx context.Context, name string) (*Concept, error) {
	c, err := scanConcept(r.conn(ctx).QueryRow(ctx, `
		SELECT `+conceptCols+` FROM concept
		WHERE lower(name) = lower($1)
		ORDER BY voided, retired, id
		LIMIT 1`, name))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("concept %q: %w", name, lifecycle.ErrNotFound)
	}
	return c, err
}

func (r *conceptRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*Concept, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM concept WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+conceptCols+` FROM concept
		WHERE `+lifecycle.ActiveClause("")+`
		ORDER BY id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *conceptRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM concept`).Scan(&n)
	return n, err
}

func (r *conceptRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "concept", id, reason, by)
}

func (r *conceptRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "concept", id, reason, by)
}

func scanConcept(row pgx.Row) (*Concept, error) {
	var c Concept
	dest := append([]any{&c.ID, &c.Name, &c.Source, &c.CUI}, lifecycle.Targets(&c.Status, &c.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

// -- VocabularySet Repository --

type vocabularySetRepoPG struct {
	pool *pgxpool.Pool
}

func NewVocabularySetRepo(pool *pgxpool.Pool) VocabularySetRepository {
	return &vocabularySetRepoPG{pool: pool}
}

func (r *vocabularySetRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var vocabularySetCols = `v.id, v.name, v.concept_family_id,
	COALESCE((SELECT array_agg(m.concept_id ORDER BY m.concept_id) FROM vocabulary_set_member m WHERE m.vocabulary_set_id = v.id), '{}'),
	` + lifecycle.ColumnsOf("v")

func (r *vocabularySetRepoPG) Create(ctx context.Context, v *VocabularySet) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		err := q.QueryRow(ctx, `
			INSERT INTO vocabulary_set (name, concept_family_id, created_by, updated_by)
			VALUES ($1, $2, $3, $3)
			RETURNING id, created_at, updated_at`,
			v.Name, v.ConceptFamilyID, v.CreatedBy,
		).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert vocabulary set: %w", err)
		}
		for _, mid := range v.MemberIDs {
			if _, err := q.Exec(ctx,
				`INSERT INTO vocabulary_set_member (vocabulary_set_id, concept_id) VALUES ($1, $2)`,
				v.ID, mid); err != nil {
				return fmt.Errorf("insert vocabulary set member %d: %w", mid, err)
			}
		}
		v.UpdatedBy = v.CreatedBy
		return nil
	})
}

func (r *vocabularySetRepoPG) GetByID(ctx context.Context, id int64) (*VocabularySet, error) {
	v, err := scanVocabularySet(r.conn(ctx).QueryRow(ctx,
		`SELECT `+vocabularySetCols+` FROM vocabulary_set v WHERE v.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("vocabulary set", id)
	}
	return v, err
}

func (r *vocabularySetRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*VocabularySet, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM vocabulary_set WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+vocabularySetCols+` FROM vocabulary_set v
		WHERE `+lifecycle.ActiveClause("v")+`
		ORDER BY v.id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*VocabularySet
	for rows.Next() {
		v, err := scanVocabularySet(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *vocabularySetRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "vocabulary_set", id, reason, by)
}

func (r *vocabularySetRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "vocabulary_set", id, reason, by)
}

func scanVocabularySet(row pgx.Row) (*VocabularySet, error) {
	var v VocabularySet
	dest := append([]any{&v.ID, &v.Name, &v.ConceptFamilyID, &v.MemberIDs}, lifecycle.Targets(&v.Status, &v.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &v, nil
}
