package identity

import (
	"context"
	"sort"
	"time"

	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/lifecycle/lifecycletest"
)

type mockPatientRepo struct {
	store  map[int64]*Patient
	nextID int64
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{store: make(map[int64]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	p.UpdatedBy = p.CreatedBy
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("patient", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) ListActive(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.store {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockPatientRepo) Void(_ context.Context, id int64, reason, by string) error {
	p, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("patient", id)
	}
	if err := lifecycletest.Voidable("patient", id, p.Status); err != nil {
		return err
	}
	p.Voided, p.VoidedReason, p.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func (m *mockPatientRepo) Retire(_ context.Context, id int64, reason, by string) error {
	p, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("patient", id)
	}
	if err := lifecycletest.Retirable("patient", id, p.Status); err != nil {
		return err
	}
	p.Retired, p.RetiredReason, p.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func newTestService() (*Service, *mockPatientRepo) {
	repo := newMockPatientRepo()
	return NewService(repo), repo
}

func validPatient() *Patient {
	return &Patient{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Gender:       "F",
		DateOfBirth:  time.Date(2014, 3, 1, 0, 0, 0, 0, time.UTC),
		Email:        "ada@example.org",
		AddressLine1: "1 Analytical Row",
		Country:      "UK",
	}
}
