package encounter

import (
	"context"

	"github.com/ehr/regimen/internal/domain/identity"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

// PatientLookup resolves the patient an encounter belongs to.
type PatientLookup interface {
	GetActivePatient(ctx context.Context, id int64) (*identity.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
}

func NewService(repo Repository, patients PatientLookup) *Service {
	return &Service{repo: repo, patients: patients}
}

// CreateEncounter stores enc after checking that its patient is active.
func (s *Service) CreateEncounter(ctx context.Context, enc *Encounter) error {
	if err := validation.Struct(enc); err != nil {
		return err
	}
	if _, err := s.patients.GetActivePatient(ctx, enc.PatientID); err != nil {
		return err
	}
	enc.ID = 0
	enc.Status = lifecycle.Status{}
	enc.CreatedBy = auth.ActorFromContext(ctx)
	return s.repo.Create(ctx, enc)
}

func (s *Service) GetActiveEncounter(ctx context.Context, id int64) (*Encounter, error) {
	enc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("encounter", id, enc.Status); err != nil {
		return nil, err
	}
	return enc, nil
}

func (s *Service) ListActiveEncounters(ctx context.Context, limit, offset int) ([]*Encounter, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

// ListPatientEncounters returns the active encounters of an active patient,
// newest first.
func (s *Service) ListPatientEncounters(ctx context.Context, patientID int64) ([]*Encounter, error) {
	if _, err := s.patients.GetActivePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListActiveByPatient(ctx, patientID)
}

func (s *Service) DeleteEncounter(ctx context.Context, id int64) error {
	return s.repo.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireEncounter(ctx context.Context, id int64) error {
	return s.repo.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}
