package observation

import (
	"context"

	"github.com/ehr/regimen/internal/domain/encounter"
	"github.com/ehr/regimen/internal/domain/terminology"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

type ConceptLookup interface {
	GetActiveConcept(ctx context.Context, id int64) (*terminology.Concept, error)
}

type EncounterLookup interface {
	GetActiveEncounter(ctx context.Context, id int64) (*encounter.Encounter, error)
}

type Service struct {
	repo       Repository
	concepts   ConceptLookup
	encounters EncounterLookup
}

func NewService(repo Repository, concepts ConceptLookup, encounters EncounterLookup) *Service {
	return &Service{repo: repo, concepts: concepts, encounters: encounters}
}

// RecordObservation stores o after resolving its concept, optional concept
// value and encounter as active entities.
func (s *Service) RecordObservation(ctx context.Context, o *Observation) error {
	if err := validation.Struct(o); err != nil {
		return err
	}
	if _, err := s.concepts.GetActiveConcept(ctx, o.ConceptID); err != nil {
		return err
	}
	if o.ConceptValueID != nil {
		if _, err := s.concepts.GetActiveConcept(ctx, *o.ConceptValueID); err != nil {
			return err
		}
	}
	enc, err := s.encounters.GetActiveEncounter(ctx, o.EncounterID)
	if err != nil {
		return err
	}

	o.ID = 0
	o.Status = lifecycle.Status{}
	o.CreatedBy = auth.ActorFromContext(ctx)
	o.EncounterDate = enc.EncounterDate
	o.PatientID = enc.PatientID
	return s.repo.Create(ctx, o)
}

func (s *Service) GetActiveObservation(ctx context.Context, id int64) (*Observation, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("observation", id, o.Status); err != nil {
		return nil, err
	}
	return o, nil
}

// ListActiveObservations returns every active observation.
func (s *Service) ListActiveObservations(ctx context.Context) ([]*Observation, error) {
	obs, _, err := s.repo.ListActive(ctx, 0, 0)
	return obs, err
}

func (s *Service) PageActiveObservations(ctx context.Context, limit, offset int) ([]*Observation, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

func (s *Service) ListEncounterObservations(ctx context.Context, encounterID int64) ([]*Observation, error) {
	if _, err := s.encounters.GetActiveEncounter(ctx, encounterID); err != nil {
		return nil, err
	}
	return s.repo.ListActiveByEncounter(ctx, encounterID)
}

func (s *Service) DeleteObservation(ctx context.Context, id int64) error {
	return s.repo.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireObservation(ctx context.Context, id int64) error {
	return s.repo.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}
