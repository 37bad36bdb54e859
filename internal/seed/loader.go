package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/regimen/internal/domain/regimen"
	"github.com/ehr/regimen/internal/domain/terminology"
)

type ConceptStore interface {
	CountConcepts(ctx context.Context) (int, error)
	AddConcept(ctx context.Context, c *terminology.Concept) error
}

type Catalog interface {
	AddCondition(ctx context.Context, c *regimen.Condition) error
	AddFrequency(ctx context.Context, f *regimen.Frequency) error
	AddAction(ctx context.Context, a *regimen.Action) error
	AddRegimen(ctx context.Context, r *regimen.Regimen) error
	AddCategory(ctx context.Context, c *regimen.Category) error
}

// TxFunc runs fn in one transaction.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Loader struct {
	concepts ConceptStore
	catalog  Catalog
	inTx     TxFunc
	logger   zerolog.Logger
}

func NewLoader(concepts ConceptStore, catalog Catalog, inTx TxFunc, logger zerolog.Logger) *Loader {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Loader{concepts: concepts, catalog: catalog, inTx: inTx, logger: logger}
}

// Load stores doc when the concept registry is empty and reports whether it
// did. The whole document is written in one transaction.
func (l *Loader) Load(ctx context.Context, doc *Document) (bool, error) {
	n, err := l.concepts.CountConcepts(ctx)
	if err != nil {
		return false, fmt.Errorf("count concepts: %w", err)
	}
	if n > 0 {
		l.logger.Debug().Int("concepts", n).Msg("metadata already present, skipping seed")
		return false, nil
	}

	l.logger.Info().Msg("loading default metadata")
	err = l.inTx(ctx, func(ctx context.Context) error {
		return newRun(l.catalog).load(ctx, l.concepts, doc)
	})
	if err != nil {
		return false, fmt.Errorf("seed metadata: %w", err)
	}
	l.logger.Info().
		Int("concepts", len(doc.Concepts)).
		Int("conditions", len(doc.Conditions)).
		Int("actions", len(doc.Actions)).
		Int("categories", len(doc.Categories)).
		Msg("default metadata loaded")
	return true, nil
}

// run resolves names to the ids assigned during one load.
type run struct {
	catalog     Catalog
	concepts    map[string]int64
	conditions  map[string]int64
	frequencies map[string]int64
	actions     map[string]int64
	regimens    map[string]int64
}

func newRun(catalog Catalog) *run {
	return &run{
		catalog:     catalog,
		concepts:    make(map[string]int64),
		conditions:  make(map[string]int64),
		frequencies: make(map[string]int64),
		actions:     make(map[string]int64),
		regimens:    make(map[string]int64),
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func lookup(m map[string]int64, kind, name string) (int64, error) {
	id, ok := m[key(name)]
	if !ok {
		return 0, fmt.Errorf("unknown %s %q", kind, name)
	}
	return id, nil
}

// optional resolves name, or returns nil when name is empty.
func optional(m map[string]int64, kind, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	id, err := lookup(m, kind, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *run) load(ctx context.Context, concepts ConceptStore, doc *Document) error {
	for _, name := range doc.Concepts {
		c := &terminology.Concept{Name: name}
		if err := concepts.AddConcept(ctx, c); err != nil {
			return fmt.Errorf("concept %q: %w", name, err)
		}
		r.concepts[key(name)] = c.ID
	}
	for _, spec := range doc.Conditions {
		if err := r.addCondition(ctx, spec); err != nil {
			return fmt.Errorf("condition %q: %w", spec.Description, err)
		}
	}
	for _, spec := range doc.Frequencies {
		if err := r.addFrequency(ctx, spec); err != nil {
			return fmt.Errorf("frequency %q: %w", spec.Description, err)
		}
	}
	for _, spec := range doc.Actions {
		if err := r.addAction(ctx, spec); err != nil {
			return fmt.Errorf("action %q: %w", spec.Description, err)
		}
	}
	for _, name := range doc.Regimens {
		reg := &regimen.Regimen{Name: name}
		if err := r.catalog.AddRegimen(ctx, reg); err != nil {
			return fmt.Errorf("regimen %q: %w", name, err)
		}
		r.regimens[key(name)] = reg.ID
	}
	for _, spec := range doc.Categories {
		if err := r.addCategory(ctx, spec); err != nil {
			return fmt.Errorf("category %q: %w", spec.Name, err)
		}
	}
	return nil
}

func (r *run) addCondition(ctx context.Context, spec ConditionSpec) error {
	conceptID, err := lookup(r.concepts, "concept", spec.Concept)
	if err != nil {
		return err
	}
	valueID, err := optional(r.concepts, "concept", spec.Value)
	if err != nil {
		return err
	}
	c := &regimen.Condition{
		Description:    spec.Description,
		ConditionType:  conditionTypes[key(spec.Type)],
		Relator:        relators[key(spec.Relator)],
		ConceptID:      conceptID,
		ConceptValueID: valueID,
		IntValue:       spec.IntValue,
		EndValue:       spec.EndValue,
	}
	if err := r.catalog.AddCondition(ctx, c); err != nil {
		return err
	}
	r.conditions[key(spec.Description)] = c.ID
	return nil
}

func (r *run) addFrequency(ctx context.Context, spec FrequencySpec) error {
	conceptID, err := optional(r.concepts, "concept", spec.Concept)
	if err != nil {
		return err
	}
	f := &regimen.Frequency{
		Description:   spec.Description,
		ConceptID:     conceptID,
		FrequencyType: spec.Type,
		Time:          spec.Time,
		Unit:          spec.Unit,
	}
	if err := r.catalog.AddFrequency(ctx, f); err != nil {
		return err
	}
	r.frequencies[key(spec.Description)] = f.ID
	return nil
}

func (r *run) addAction(ctx context.Context, spec ActionSpec) error {
	conceptID, err := optional(r.concepts, "concept", spec.Concept)
	if err != nil {
		return err
	}
	valueID, err := optional(r.concepts, "concept", spec.Value)
	if err != nil {
		return err
	}
	frequencyID, err := optional(r.frequencies, "frequency", spec.Frequency)
	if err != nil {
		return err
	}
	a := &regimen.Action{
		Description:    spec.Description,
		ConceptID:      conceptID,
		ConceptValueID: valueID,
		FrequencyID:    frequencyID,
		StartDosage:    spec.StartDosage,
		EndDosage:      spec.EndDosage,
	}
	if spec.Unit != "" {
		unit := spec.Unit
		a.Unit = &unit
	}
	if err := r.catalog.AddAction(ctx, a); err != nil {
		return err
	}
	r.actions[key(spec.Description)] = a.ID
	return nil
}

func (r *run) addCategory(ctx context.Context, spec CategorySpec) error {
	regimenID, err := lookup(r.regimens, "regimen", spec.Regimen)
	if err != nil {
		return err
	}
	cat := &regimen.Category{Name: spec.Name, RegimenID: regimenID}
	for _, d := range spec.Conditions {
		id, err := lookup(r.conditions, "condition", d)
		if err != nil {
			return err
		}
		cat.ConditionIDs = append(cat.ConditionIDs, id)
	}
	for _, d := range spec.Actions {
		id, err := lookup(r.actions, "action", d)
		if err != nil {
			return err
		}
		cat.ActionIDs = append(cat.ActionIDs, id)
	}
	return r.catalog.AddCategory(ctx, cat)
}
