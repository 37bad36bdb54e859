package episode

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

// AddEpisode stores ep after checking its dates and resolving its encounter
// and optional concept as active entities.
func (s *Service) AddEpisode(ctx context.Context, ep *Episode) error {
	if err := validation.Struct(ep); err != nil {
		return err
	}
	if ep.EndDate != nil && ep.EndDate.Before(ep.StartDate) {
		return validation.New("end_date", "must not precede start_date")
	}
	if ep.EncounterID <= 0 {
		return lifecycle.NotFound("encounter", ep.EncounterID)
	}
	if _, err := s.encounters.GetActiveEncounter(ctx, ep.EncounterID); err != nil {
		return err
	}
	if ep.ConceptID != nil {
		if _, err := s.concepts.GetActiveConcept(ctx, *ep.ConceptID); err != nil {
			return err
		}
	}

	ep.ID = 0
	ep.Status = lifecycle.Status{}
	ep.CreatedBy = auth.ActorFromContext(ctx)
	return s.repo.Create(ctx, ep)
}

func (s *Service) GetActiveEpisode(ctx context.Context, id int64) (*Episode, error) {
	ep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("episode", id, ep.Status); err != nil {
		return nil, err
	}
	return ep, nil
}

func (s *Service) ListActiveEpisodes(ctx context.Context, limit, offset int) ([]*Episode, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

// ListEncounterEpisodes returns the active episodes of an encounter in id
// order. The encounter itself is not checked.
func (s *Service) ListEncounterEpisodes(ctx context.Context, encounterID int64) ([]*Episode, error) {
	return s.repo.ListActiveByEncounter(ctx, encounterID)
}

func (s *Service) DeleteEpisode(ctx context.Context, id int64) error {
	return s.repo.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireEpisode(ctx context.Context, id int64) error {
	return s.repo.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}
