package encounter

import (
	"context"
	"sort"
	"time"

	"github.com/ehr/regimen/internal/domain/identity"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/lifecycle/lifecycletest"
)

type mockRepo struct {
	store  map[int64]*Encounter
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]*Encounter)}
}

func (m *mockRepo) Create(_ context.Context, enc *Encounter) error {
	m.nextID++
	enc.ID = m.nextID
	enc.CreatedAt = time.Now()
	cp := *enc
	m.store[enc.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Encounter, error) {
	enc, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("encounter", id)
	}
	cp := *enc
	return &cp, nil
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*Encounter, int, error) {
	var out []*Encounter
	for _, enc := range m.store {
		if enc.IsActive() {
			out = append(out, enc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepo) ListActiveByPatient(_ context.Context, patientID int64) ([]*Encounter, error) {
	var out []*Encounter
	for _, enc := range m.store {
		if enc.PatientID == patientID && enc.IsActive() {
			out = append(out, enc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EncounterDate.Equal(out[j].EncounterDate) {
			return out[i].EncounterDate.After(out[j].EncounterDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockRepo) Void(_ context.Context, id int64, reason, by string) error {
	enc, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("encounter", id)
	}
	if err := lifecycletest.Voidable("encounter", id, enc.Status); err != nil {
		return err
	}
	enc.Voided, enc.VoidedReason, enc.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func (m *mockRepo) Retire(_ context.Context, id int64, reason, by string) error {
	enc, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("encounter", id)
	}
	if err := lifecycletest.Retirable("encounter", id, enc.Status); err != nil {
		return err
	}
	enc.Retired, enc.RetiredReason, enc.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

// stubPatients answers GetActivePatient from a fixed status table.
type stubPatients map[int64]lifecycle.Status

func (s stubPatients) GetActivePatient(_ context.Context, id int64) (*identity.Patient, error) {
	st, ok := s[id]
	if !ok {
		return nil, lifecycle.NotFound("patient", id)
	}
	if err := lifecycle.CheckActive("patient", id, st); err != nil {
		return nil, err
	}
	return &identity.Patient{ID: id, Status: st}, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	patients := stubPatients{
		1: {},
		2: {Retired: lifecycle.On},
		3: {Voided: lifecycle.On},
	}
	return NewService(repo, patients), repo
}
