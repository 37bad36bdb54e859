package episode

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

type episodeRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &episodeRepoPG{pool: pool}
}

func (r *episodeRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var episodeCols = `id, start_date, end_date, state, concept_id, encounter_id, ` + lifecycle.Columns

func (r *episodeRepoPG) Create(ctx context.Context, ep *Episode) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO episode (start_date, end_date, state, concept_id, encounter_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at`,
		ep.StartDate, ep.EndDate, ep.State, ep.ConceptID, ep.EncounterID, ep.CreatedBy,
	).Scan(&ep.ID, &ep.CreatedAt, &ep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	ep.UpdatedBy = ep.CreatedBy
	return nil
}

func (r *episodeRepoPG) GetByID(ctx context.Context, id int64) (*Episode, error) {
	ep, err := scanEpisode(r.conn(ctx).QueryRow(ctx, `SELECT `+episodeCols+` FROM episode WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("episode", id)
	}
	return ep, err
}

func (r *episodeRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*Episode, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM episode WHERE `+lifecycle.ActiveClause("")).Scan(&total); err != nil {
		return nil, 0, err
	}
	eps, err := r.list(ctx, `
		SELECT `+episodeCols+` FROM episode
		WHERE `+lifecycle.ActiveClause("")+`
		ORDER BY id
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	return eps, total, err
}

func (r *episodeRepoPG) ListActiveByEncounter(ctx context.Context, encounterID int64) ([]*Episode, error) {
	return r.list(ctx, `
		SELECT `+episodeCols+` FROM episode
		WHERE encounter_id = $1 AND `+lifecycle.ActiveClause("")+`
		ORDER BY id`, encounterID)
}

func (r *episodeRepoPG) list(ctx context.Context, query string, args ...any) ([]*Episode, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eps []*Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, rows.Err()
}

func (r *episodeRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "episode", id, reason, by)
}

func (r *episodeRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "episode", id, reason, by)
}

func scanTargets(ep *Episode) []any {
	return append([]any{&ep.ID, &ep.StartDate, &ep.EndDate, &ep.State, &ep.ConceptID, &ep.EncounterID},
		lifecycle.Targets(&ep.Status, &ep.Audit)...)
}

func scanEpisode(row pgx.Row) (*Episode, error) {
	var ep Episode
	if err := row.Scan(scanTargets(&ep)...); err != nil {
		return nil, err
	}
	return &ep, nil
}
