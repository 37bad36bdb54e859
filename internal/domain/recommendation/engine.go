// Package recommendation evaluates the regimen category rule base against a
// patient's age and the observations recorded on an encounter date.
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/regimen/internal/domain/identity"
	"github.com/ehr/regimen/internal/domain/observation"
	"github.com/ehr/regimen/internal/domain/regimen"
	"github.com/ehr/regimen/pkg/clinicaldate"
)

// ErrInconsistentData marks a condition whose stored references cannot be
// evaluated.
var ErrInconsistentData = errors.New("inconsistent rule data")

// AgeConceptName is the concept whose conditions compare against the
// patient's age instead of an observation.
const AgeConceptName = "Age"

// PatientSource resolves the patient being evaluated.
type PatientSource interface {
	GetActivePatient(ctx context.Context, id int64) (*identity.Patient, error)
}

// CategorySource lists the active regimen categories with their rules.
type CategorySource interface {
	ListActiveCategories(ctx context.Context) ([]*regimen.Category, error)
}

// ObservationSource lists every active observation.
type ObservationSource interface {
	ListActiveObservations(ctx context.Context) ([]*observation.Observation, error)
}

// SnapshotFunc runs fn so that every read inside it sees one consistent
// view of the store.
type SnapshotFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// AgeReference selects the date a patient's age is computed at.
type AgeReference int

const (
	// AgeAtNow uses the evaluation time.
	AgeAtNow AgeReference = iota
	// AgeAtEncounter uses the encounter date being evaluated.
	AgeAtEncounter
)

func (r AgeReference) String() string {
	if r == AgeAtEncounter {
		return "encounter"
	}
	return "now"
}

// ParseAgeReference accepts "now" and "encounter"; empty means now.
func ParseAgeReference(s string) (AgeReference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "now":
		return AgeAtNow, nil
	case "encounter":
		return AgeAtEncounter, nil
	}
	return AgeAtNow, fmt.Errorf("unknown age reference %q (want now or encounter)", s)
}

// Engine matches regimen categories against patient data.
type Engine struct {
	patients     PatientSource
	categories   CategorySource
	observations ObservationSource
	snapshot     SnapshotFunc
	ageAt        AgeReference
	now          func() time.Time
	logger       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithAgeReference(r AgeReference) Option {
	return func(e *Engine) { e.ageAt = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSnapshot wraps each Recommend call, normally in a read-only
// transaction.
func WithSnapshot(fn SnapshotFunc) Option {
	return func(e *Engine) { e.snapshot = fn }
}

// NewEngine builds an Engine that computes age at the evaluation time
// unless configured otherwise.
func NewEngine(patients PatientSource, categories CategorySource, observations ObservationSource, opts ...Option) *Engine {
	e := &Engine{
		patients:     patients,
		categories:   categories,
		observations: observations,
		snapshot: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns the active regimen categories, in ascending id order,
// whose every condition holds for the patient on encounterDate. Lookup
// errors for the patient are returned unwrapped.
func (e *Engine) Recommend(ctx context.Context, patientID int64, encounterDate time.Time) ([]*regimen.Category, error) {
	var out []*regimen.Category
	err := e.snapshot(ctx, func(ctx context.Context) error {
		patient, err := e.patients.GetActivePatient(ctx, patientID)
		if err != nil {
			return err
		}
		cats, err := e.categories.ListActiveCategories(ctx)
		if err != nil {
			return fmt.Errorf("list regimen categories: %w", err)
		}
		obs, err := e.observations.ListActiveObservations(ctx)
		if err != nil {
			return fmt.Errorf("list observations: %w", err)
		}

		ev := e.newEvaluation(patient, encounterDate, obs)
		out, err = ev.run(cats)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// evaluation holds the per-call facts conditions are checked against.
type evaluation struct {
	log    zerolog.Logger
	age    int
	latest map[int64]*observation.Observation
}

func (e *Engine) newEvaluation(p *identity.Patient, encounterDate time.Time, obs []*observation.Observation) *evaluation {
	ref := e.now()
	if e.ageAt == AgeAtEncounter {
		ref = encounterDate
	}
	ev := &evaluation{
		log:    e.logger.With().Int64("patient_id", p.ID).Str("encounter_date", encounterDate.Format(clinicaldate.DateLayout)).Logger(),
		age:    p.AgeAt(ref),
		latest: latestByConcept(obs, p.ID, encounterDate),
	}
	ev.log.Debug().Int("age", ev.age).Str("age_reference", e.ageAt.String()).
		Int("observations", len(ev.latest)).Msg("evaluating regimen categories")
	return ev
}

// latestByConcept keeps, per concept, the observation with the latest
// observation date among those of patientID whose encounter falls on day.
// Equal dates keep the lower id.
func latestByConcept(obs []*observation.Observation, patientID int64, day time.Time) map[int64]*observation.Observation {
	latest := make(map[int64]*observation.Observation)
	for _, o := range obs {
		if o.PatientID != patientID || !clinicaldate.SameDay(day, o.EncounterDate) {
			continue
		}
		cur, ok := latest[o.ConceptID]
		if !ok || o.ObservationDate.After(cur.ObservationDate) ||
			(o.ObservationDate.Equal(cur.ObservationDate) && o.ID < cur.ID) {
			latest[o.ConceptID] = o
		}
	}
	return latest
}

func (ev *evaluation) run(cats []*regimen.Category) ([]*regimen.Category, error) {
	sorted := make([]*regimen.Category, len(cats))
	copy(sorted, cats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]*regimen.Category, 0, len(sorted))
	for _, cat := range sorted {
		if !cat.IsActive() {
			continue
		}
		ok, err := ev.qualifies(cat)
		if err != nil {
			return nil, err
		}
		ev.log.Debug().Int64("category_id", cat.ID).Bool("qualifies", ok).Msg("regimen category evaluated")
		if ok {
			out = append(out, cat)
		}
	}
	return out, nil
}

// qualifies evaluates every condition of cat in id order. A failed condition
// disqualifies the category but the remaining ones are still checked.
func (ev *evaluation) qualifies(cat *regimen.Category) (bool, error) {
	conds := make([]regimen.Condition, len(cat.Conditions))
	copy(conds, cat.Conditions)
	sort.SliceStable(conds, func(i, j int) bool { return conds[i].ID < conds[j].ID })

	qualifies := true
	for i := range conds {
		ok, err := ev.holds(&conds[i])
		if err != nil {
			return false, fmt.Errorf("regimen category %d: %w", cat.ID, err)
		}
		if !ok {
			qualifies = false
		}
	}
	return qualifies, nil
}

func (ev *evaluation) holds(c *regimen.Condition) (bool, error) {
	log := ev.log.With().Int64("condition_id", c.ID).Logger()
	if c.ConceptID == 0 || c.ConceptName == "" {
		return false, fmt.Errorf("condition %d has no concept: %w", c.ID, ErrInconsistentData)
	}

	if strings.EqualFold(c.ConceptName, AgeConceptName) {
		ok := compare(log, ev.age, c.IntValue, c.Relator)
		log.Debug().Int("age", ev.age).Int("expected", c.IntValue).Bool("holds", ok).Msg("age condition")
		return ok, nil
	}

	switch c.ConditionType {
	case regimen.ConceptCondition:
		if c.ConceptValueID == nil {
			return false, fmt.Errorf("concept condition %d has no expected value: %w", c.ID, ErrInconsistentData)
		}
		o, found := ev.latest[c.ConceptID]
		ok := found && o.ConceptValueID != nil && *o.ConceptValueID == *c.ConceptValueID
		log.Debug().Bool("observed", found).Bool("holds", ok).Msg("concept condition")
		return ok, nil

	case regimen.IntegerCondition:
		o, found := ev.latest[c.ConceptID]
		if !found {
			log.Debug().Bool("observed", false).Msg("integer condition")
			return false, nil
		}
		ok := compare(log, o.IntValue, c.IntValue, c.Relator)
		log.Debug().Int("actual", o.IntValue).Int("expected", c.IntValue).Bool("holds", ok).Msg("integer condition")
		return ok, nil

	case regimen.StringCondition, regimen.DateTimeCondition:
		log.Debug().Str("condition_type", c.ConditionType.String()).Msg("condition type not evaluated, treated as satisfied")
		return true, nil
	}
	return false, fmt.Errorf("condition %d has unknown type %d: %w", c.ID, c.ConditionType, ErrInconsistentData)
}

// compare applies actual <r> expected. NotEqual and unknown relators compare
// for equality.
func compare(log zerolog.Logger, actual, expected int, r regimen.Relator) bool {
	switch r {
	case regimen.Equals:
		return actual == expected
	case regimen.GreaterOrEqual:
		return actual >= expected
	case regimen.Less:
		return actual < expected
	case regimen.NotEqual:
		log.Warn().Msg("NOT_EQUAL relator evaluated as EQUALS")
		return actual == expected
	}
	log.Warn().Int16("relator", int16(r)).Msg("unknown relator evaluated as EQUALS")
	return actual == expected
}
