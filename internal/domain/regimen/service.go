package regimen

import (
	"context"
	"sort"
	"strings"

	"github.com/ehr/regimen/internal/domain/terminology"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

// ConceptLookup resolves concept references of catalog entries.
type ConceptLookup interface {
	GetActiveConcept(ctx context.Context, id int64) (*terminology.Concept, error)
}

// Service manages the condition, action and regimen catalog.
type Service struct {
	conditions  ConditionRepository
	frequencies FrequencyRepository
	actions     ActionRepository
	regimens    RegimenRepository
	categories  CategoryRepository
	concepts    ConceptLookup
}

// Repos groups the catalog repositories.
type Repos struct {
	Conditions  ConditionRepository
	Frequencies FrequencyRepository
	Actions     ActionRepository
	Regimens    RegimenRepository
	Categories  CategoryRepository
}

func NewService(repos Repos, concepts ConceptLookup) *Service {
	return &Service{
		conditions:  repos.Conditions,
		frequencies: repos.Frequencies,
		actions:     repos.Actions,
		regimens:    repos.Regimens,
		categories:  repos.Categories,
		concepts:    concepts,
	}
}

func (s *Service) conceptRef(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.concepts.GetActiveConcept(ctx, *id)
	return err
}

// -- Condition --

// AddCondition stores a condition rule. A concept condition must name the
// expected concept value.
func (s *Service) AddCondition(ctx context.Context, c *Condition) error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.ConditionType == ConceptCondition && c.ConceptValueID == nil {
		return validation.New("concept_value_id", "is required for a concept condition")
	}
	concept, err := s.concepts.GetActiveConcept(ctx, c.ConceptID)
	if err != nil {
		return err
	}
	c.ConceptValueName = nil
	if c.ConceptValueID != nil {
		value, err := s.concepts.GetActiveConcept(ctx, *c.ConceptValueID)
		if err != nil {
			return err
		}
		c.ConceptValueName = &value.Name
	}
	c.ID = 0
	c.ConceptName = concept.Name
	c.Status = lifecycle.Status{}
	c.CreatedBy = auth.ActorFromContext(ctx)
	return s.conditions.Create(ctx, c)
}

func (s *Service) GetActiveCondition(ctx context.Context, id int64) (*Condition, error) {
	c, err := s.conditions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("condition", id, c.Status); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListActiveConditions(ctx context.Context) ([]*Condition, error) {
	return s.conditions.ListActive(ctx)
}

// -- Frequency --

func (s *Service) AddFrequency(ctx context.Context, f *Frequency) error {
	f.FrequencyType = strings.ToLower(strings.TrimSpace(f.FrequencyType))
	f.Unit = strings.ToLower(strings.TrimSpace(f.Unit))
	if err := validation.Struct(f); err != nil {
		return err
	}
	if err := s.conceptRef(ctx, f.ConceptID); err != nil {
		return err
	}
	f.ID = 0
	f.Status = lifecycle.Status{}
	f.CreatedBy = auth.ActorFromContext(ctx)
	return s.frequencies.Create(ctx, f)
}

func (s *Service) GetActiveFrequency(ctx context.Context, id int64) (*Frequency, error) {
	f, err := s.frequencies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("frequency", id, f.Status); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) ListActiveFrequencies(ctx context.Context) ([]*Frequency, error) {
	return s.frequencies.ListActive(ctx)
}

// -- Action --

func (s *Service) AddAction(ctx context.Context, a *Action) error {
	if err := validation.Struct(a); err != nil {
		return err
	}
	if a.EndDosage != 0 && a.EndDosage < a.StartDosage {
		return validation.New("end_dosage", "must not be below start_dosage")
	}
	if err := s.conceptRef(ctx, a.ConceptID); err != nil {
		return err
	}
	if err := s.conceptRef(ctx, a.ConceptValueID); err != nil {
		return err
	}
	if a.FrequencyID != nil {
		if _, err := s.GetActiveFrequency(ctx, *a.FrequencyID); err != nil {
			return err
		}
	}
	a.ID = 0
	a.Status = lifecycle.Status{}
	a.CreatedBy = auth.ActorFromContext(ctx)
	return s.actions.Create(ctx, a)
}

func (s *Service) GetActiveAction(ctx context.Context, id int64) (*Action, error) {
	a, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("action", id, a.Status); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListActiveActions(ctx context.Context) ([]*Action, error) {
	return s.actions.ListActive(ctx)
}

// -- Regimen --

func (s *Service) AddRegimen(ctx context.Context, r *Regimen) error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	r.ID = 0
	r.Status = lifecycle.Status{}
	r.CreatedBy = auth.ActorFromContext(ctx)
	return s.regimens.Create(ctx, r)
}

func (s *Service) GetActiveRegimen(ctx context.Context, id int64) (*Regimen, error) {
	r, err := s.regimens.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("regimen", id, r.Status); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) ListActiveRegimens(ctx context.Context) ([]*Regimen, error) {
	return s.regimens.ListActive(ctx)
}

// -- Category --

// AddCategory stores c with its condition and action memberships. The
// regimen and every member must be active; duplicate member ids collapse.
func (s *Service) AddCategory(ctx context.Context, c *Category) error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	reg, err := s.GetActiveRegimen(ctx, c.RegimenID)
	if err != nil {
		return err
	}
	c.ConditionIDs = uniqueIDs(c.ConditionIDs)
	c.ActionIDs = uniqueIDs(c.ActionIDs)

	c.Conditions = make([]Condition, 0, len(c.ConditionIDs))
	for _, id := range c.ConditionIDs {
		cond, err := s.GetActiveCondition(ctx, id)
		if err != nil {
			return err
		}
		c.Conditions = append(c.Conditions, *cond)
	}
	c.Actions = make([]Action, 0, len(c.ActionIDs))
	for _, id := range c.ActionIDs {
		a, err := s.GetActiveAction(ctx, id)
		if err != nil {
			return err
		}
		c.Actions = append(c.Actions, *a)
	}

	c.ID = 0
	c.RegimenName = reg.Name
	c.Status = lifecycle.Status{}
	c.CreatedBy = auth.ActorFromContext(ctx)
	return s.categories.Create(ctx, c)
}

func (s *Service) GetActiveCategory(ctx context.Context, id int64) (*Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("regimen category", id, c.Status); err != nil {
		return nil, err
	}
	return c, nil
}

// ListActiveCategories returns active categories in ascending id order, each
// with its conditions sorted by id.
func (s *Service) ListActiveCategories(ctx context.Context) ([]*Category, error) {
	cats, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	for _, c := range cats {
		sort.Slice(c.Conditions, func(i, j int) bool { return c.Conditions[i].ID < c.Conditions[j].ID })
	}
	return cats, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireCategory(ctx context.Context, id int64) error {
	return s.categories.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
