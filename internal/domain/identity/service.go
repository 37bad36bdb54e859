package identity

import (
	"context"
	"strings"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

type Service struct {
	patients PatientRepository
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
	p.Email = strings.TrimSpace(p.Email)
	if err := validation.Struct(p); err != nil {
		return err
	}
	p.ID = 0
	p.Status = lifecycle.Status{}
	p.CreatedBy = auth.ActorFromContext(ctx)
	return s.patients.Create(ctx, p)
}

// GetActivePatient returns ErrNotFound for missing or voided patients and
// ErrNotActive for retired ones.
func (s *Service) GetActivePatient(ctx context.Context, id int64) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("patient", id, p.Status); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListActivePatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.ListActive(ctx, limit, offset)
}

func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	return s.patients.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetirePatient(ctx context.Context, id int64) error {
	return s.patients.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}
