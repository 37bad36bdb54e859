package regimen

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// -- Condition Repository --

type conditionRepoPG struct {
	pool *pgxpool.Pool
}

func NewConditionRepo(pool *pgxpool.Pool) ConditionRepository {
	return &conditionRepoPG{pool: pool}
}

func (r *conditionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var conditionCols = `rc.id, rc.description, rc.condition_type, rc.relator, rc.concept_id, c.name,
	rc.concept_value_id, cv.name, rc.int_value, rc.end_value, rc.string_value, rc.date_time_value, ` +
	lifecycle.ColumnsOf("rc")

const conditionFrom = `
	FROM regimen_condition rc
	JOIN concept c ON c.id = rc.concept_id
	LEFT JOIN concept cv ON cv.id = rc.concept_value_id`

func (r *conditionRepoPG) Create(ctx context.Context, c *Condition) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO regimen_condition (
			description, condition_type, relator, concept_id, concept_value_id,
			int_value, end_value, string_value, date_time_value, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id, created_at, updated_at`,
		c.Description, int16(c.ConditionType), int16(c.Relator), c.ConceptID, c.ConceptValueID,
		c.IntValue, c.EndValue, c.StringValue, c.DateTimeValue, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert condition: %w", err)
	}
	c.UpdatedBy = c.CreatedBy
	return nil
}

func (r *conditionRepoPG) GetByID(ctx context.Context, id int64) (*Condition, error) {
	c, err := scanCondition(r.conn(ctx).QueryRow(ctx, `SELECT `+conditionCols+conditionFrom+` WHERE rc.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("condition", id)
	}
	return c, err
}

func (r *conditionRepoPG) ListActive(ctx context.Context) ([]*Condition, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+conditionCols+conditionFrom+`
		WHERE `+lifecycle.ActiveClause("rc")+` ORDER BY rc.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Condition
	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanCondition reads conditionCols, preceded by any extra leading columns.
func scanCondition(row pgx.Row, lead ...any) (*Condition, error) {
	var c Condition
	var condType, relator int16
	dest := append(lead,
		&c.ID, &c.Description, &condType, &relator, &c.ConceptID, &c.ConceptName,
		&c.ConceptValueID, &c.ConceptValueName, &c.IntValue, &c.EndValue, &c.StringValue, &c.DateTimeValue,
	)
	if err := row.Scan(append(dest, lifecycle.Targets(&c.Status, &c.Audit)...)...); err != nil {
		return nil, err
	}
	c.ConditionType = ConditionType(condType)
	c.Relator = Relator(relator)
	return &c, nil
}

// -- Frequency Repository --

type frequencyRepoPG struct {
	pool *pgxpool.Pool
}

func NewFrequencyRepo(pool *pgxpool.Pool) FrequencyRepository {
	return &frequencyRepoPG{pool: pool}
}

func (r *frequencyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var frequencyCols = `id, description, concept_id, frequency_type, "time", unit, ` + lifecycle.Columns

func (r *frequencyRepoPG) Create(ctx context.Context, f *Frequency) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO frequency (description, concept_id, frequency_type, "time", unit, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at`,
		f.Description, f.ConceptID, f.FrequencyType, f.Time, f.Unit, f.CreatedBy,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert frequency: %w", err)
	}
	f.UpdatedBy = f.CreatedBy
	return nil
}

func (r *frequencyRepoPG) GetByID(ctx context.Context, id int64) (*Frequency, error) {
	f, err := scanFrequency(r.conn(ctx).QueryRow(ctx, `SELECT `+frequencyCols+` FROM frequency WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("frequency", id)
	}
	return f, err
}

func (r *frequencyRepoPG) ListActive(ctx context.Context) ([]*Frequency, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+frequencyCols+` FROM frequency
		WHERE `+lifecycle.ActiveClause("")+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Frequency
	for rows.Next() {
		f, err := scanFrequency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFrequency(row pgx.Row) (*Frequency, error) {
	var f Frequency
	dest := append([]any{&f.ID, &f.Description, &f.ConceptID, &f.FrequencyType, &f.Time, &f.Unit},
		lifecycle.Targets(&f.Status, &f.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &f, nil
}

// -- Action Repository --

type actionRepoPG struct {
	pool *pgxpool.Pool
}

func NewActionRepo(pool *pgxpool.Pool) ActionRepository {
	return &actionRepoPG{pool: pool}
}

func (r *actionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var actionCols = `ra.id, ra.description, ra.concept_id, ra.concept_value_id, ra.frequency_id,
	ra.start_dosage, ra.end_dosage, ra.unit, ` + lifecycle.ColumnsOf("ra")

func (r *actionRepoPG) Create(ctx context.Context, a *Action) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO regimen_action (
			description, concept_id, concept_value_id, frequency_id,
			start_dosage, end_dosage, unit, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, created_at, updated_at`,
		a.Description, a.ConceptID, a.ConceptValueID, a.FrequencyID,
		a.StartDosage, a.EndDosage, a.Unit, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	a.UpdatedBy = a.CreatedBy
	return nil
}

func (r *actionRepoPG) GetByID(ctx context.Context, id int64) (*Action, error) {
	a, err := scanAction(r.conn(ctx).QueryRow(ctx, `SELECT `+actionCols+` FROM regimen_action ra WHERE ra.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("action", id)
	}
	return a, err
}

func (r *actionRepoPG) ListActive(ctx context.Context) ([]*Action, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+actionCols+` FROM regimen_action ra
		WHERE `+lifecycle.ActiveClause("ra")+` ORDER BY ra.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAction(row pgx.Row, lead ...any) (*Action, error) {
	var a Action
	dest := append(lead,
		&a.ID, &a.Description, &a.ConceptID, &a.ConceptValueID, &a.FrequencyID,
		&a.StartDosage, &a.EndDosage, &a.Unit,
	)
	if err := row.Scan(append(dest, lifecycle.Targets(&a.Status, &a.Audit)...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

// -- Regimen Repository --

type regimenRepoPG struct {
	pool *pgxpool.Pool
}

func NewRegimenRepo(pool *pgxpool.Pool) RegimenRepository {
	return &regimenRepoPG{pool: pool}
}

func (r *regimenRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var regimenCols = `id, name, ` + lifecycle.Columns

func (r *regimenRepoPG) Create(ctx context.Context, reg *Regimen) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO regimen (name, created_by, updated_by) VALUES ($1, $2, $2)
		RETURNING id, created_at, updated_at`,
		reg.Name, reg.CreatedBy,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert regimen: %w", err)
	}
	reg.UpdatedBy = reg.CreatedBy
	return nil
}

func (r *regimenRepoPG) GetByID(ctx context.Context, id int64) (*Regimen, error) {
	reg, err := scanRegimen(r.conn(ctx).QueryRow(ctx, `SELECT `+regimenCols+` FROM regimen WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("regimen", id)
	}
	return reg, err
}

func (r *regimenRepoPG) ListActive(ctx context.Context) ([]*Regimen, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+regimenCols+` FROM regimen
		WHERE `+lifecycle.ActiveClause("")+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Regimen
	for rows.Next() {
		reg, err := scanRegimen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func scanRegimen(row pgx.Row) (*Regimen, error) {
	var reg Regimen
	dest := append([]any{&reg.ID, &reg.Name}, lifecycle.Targets(&reg.Status, &reg.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &reg, nil
}

// -- Category Repository --

type categoryRepoPG struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepoPG{pool: pool}
}

func (r *categoryRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var categoryCols = `cat.id, cat.name, cat.regimen_id, reg.name, ` + lifecycle.ColumnsOf("cat")

const categoryFrom = `
	FROM regimen_category cat
	JOIN regimen reg ON reg.id = cat.regimen_id`

func (r *categoryRepoPG) Create(ctx context.Context, c *Category) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		err := q.QueryRow(ctx, `
			INSERT INTO regimen_category (name, regimen_id, created_by, updated_by)
			VALUES ($1, $2, $3, $3)
			RETURNING id, created_at, updated_at`,
			c.Name, c.RegimenID, c.CreatedBy,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert regimen category: %w", err)
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO regimen_category_condition (category_id, condition_id)
			SELECT $1, unnest($2::bigint[])`, c.ID, c.ConditionIDs); err != nil {
			return fmt.Errorf("insert category conditions: %w", err)
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO regimen_category_action (category_id, action_id)
			SELECT $1, unnest($2::bigint[])`, c.ID, c.ActionIDs); err != nil {
			return fmt.Errorf("insert category actions: %w", err)
		}
		c.UpdatedBy = c.CreatedBy
		return nil
	})
}

func (r *categoryRepoPG) GetByID(ctx context.Context, id int64) (*Category, error) {
	c, err := scanCategory(r.conn(ctx).QueryRow(ctx, `SELECT `+categoryCols+categoryFrom+` WHERE cat.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, lifecycle.NotFound("regimen category", id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.resolve(ctx, []*Category{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepoPG) ListActive(ctx context.Context) ([]*Category, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+categoryCols+categoryFrom+`
		WHERE `+lifecycle.ActiveClause("cat")+` ORDER BY cat.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.resolve(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolve loads the condition and action members of cats. Members are
// attached whatever their own lifecycle state.
func (r *categoryRepoPG) resolve(ctx context.Context, cats []*Category) error {
	if len(cats) == 0 {
		return nil
	}
	byID := make(map[int64]*Category, len(cats))
	ids := make([]int64, len(cats))
	for i, c := range cats {
		byID[c.ID] = c
		ids[i] = c.ID
		c.ConditionIDs, c.ActionIDs = []int64{}, []int64{}
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.category_id, `+conditionCols+`
		FROM regimen_category_condition m
		JOIN regimen_condition rc ON rc.id = m.condition_id
		JOIN concept c ON c.id = rc.concept_id
		LEFT JOIN concept cv ON cv.id = rc.concept_value_id
		WHERE m.category_id = ANY($1)
		ORDER BY m.category_id, rc.id`, ids)
	if err != nil {
		return fmt.Errorf("load category conditions: %w", err)
	}
	for rows.Next() {
		var catID int64
		cond, err := scanCondition(rows, &catID)
		if err != nil {
			rows.Close()
			return err
		}
		cat := byID[catID]
		cat.Conditions = append(cat.Conditions, *cond)
		cat.ConditionIDs = append(cat.ConditionIDs, cond.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.conn(ctx).Query(ctx, `
		SELECT m.category_id, `+actionCols+`
		FROM regimen_category_action m
		JOIN regimen_action ra ON ra.id = m.action_id
		WHERE m.category_id = ANY($1)
		ORDER BY m.category_id, ra.id`, ids)
	if err != nil {
		return fmt.Errorf("load category actions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var catID int64
		a, err := scanAction(rows, &catID)
		if err != nil {
			return err
		}
		cat := byID[catID]
		cat.Actions = append(cat.Actions, *a)
		cat.ActionIDs = append(cat.ActionIDs, a.ID)
	}
	return rows.Err()
}

func (r *categoryRepoPG) Void(ctx context.Context, id int64, reason, by string) error {
	return db.VoidRow(ctx, r.conn(ctx), "regimen_category", id, reason, by)
}

func (r *categoryRepoPG) Retire(ctx context.Context, id int64, reason, by string) error {
	return db.RetireRow(ctx, r.conn(ctx), "regimen_category", id, reason, by)
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	dest := append([]any{&c.ID, &c.Name, &c.RegimenID, &c.RegimenName}, lifecycle.Targets(&c.Status, &c.Audit)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}
