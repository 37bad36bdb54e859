package observation

import (
	"context"
	"sort"
	"time"

	"github.com/ehr/regimen/internal/domain/encounter"
	"github.com/ehr/regimen/internal/domain/terminology"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/lifecycle/lifecycletest"
)

type mockRepo struct {
	store  map[int64]*Observation
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]*Observation)}
}

func (m *mockRepo) Create(_ context.Context, o *Observation) error {
	m.nextID++
	o.ID = m.nextID
	o.CreatedAt = time.Now()
	cp := *o
	m.store[o.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Observation, error) {
	o, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("observation", id)
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepo) active(keep func(*Observation) bool) []*Observation {
	var out []*Observation
	for _, o := range m.store {
		if o.IsActive() && keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*Observation, int, error) {
	out := m.active(func(*Observation) bool { return true })
	total := len(out)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockRepo) ListActiveByEncounter(_ context.Context, encounterID int64) ([]*Observation, error) {
	return m.active(func(o *Observation) bool { return o.EncounterID == encounterID }), nil
}

func (m *mockRepo) Void(_ context.Context, id int64, reason, by string) error {
	o, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("observation", id)
	}
	if err := lifecycletest.Voidable("observation", id, o.Status); err != nil {
		return err
	}
	o.Voided, o.VoidedReason = lifecycle.On, &reason
	return nil
}

func (m *mockRepo) Retire(_ context.Context, id int64, reason, by string) error {
	o, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("observation", id)
	}
	if err := lifecycletest.Retirable("observation", id, o.Status); err != nil {
		return err
	}
	o.Retired, o.RetiredReason = lifecycle.On, &reason
	return nil
}

type stubConcepts map[int64]lifecycle.Status

func (s stubConcepts) GetActiveConcept(_ context.Context, id int64) (*terminology.Concept, error) {
	st, ok := s[id]
	if !ok {
		return nil, lifecycle.NotFound("concept", id)
	}
	if err := lifecycle.CheckActive("concept", id, st); err != nil {
		return nil, err
	}
	return &terminology.Concept{ID: id, Status: st}, nil
}

type stubEncounters map[int64]*encounter.Encounter

func (s stubEncounters) GetActiveEncounter(_ context.Context, id int64) (*encounter.Encounter, error) {
	enc, ok := s[id]
	if !ok {
		return nil, lifecycle.NotFound("encounter", id)
	}
	if err := lifecycle.CheckActive("encounter", id, enc.Status); err != nil {
		return nil, err
	}
	return enc, nil
}

var encounterDay = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Concepts: 1 Temperature, 2 Fever, 3 retired, 4 voided.
// Encounters: 10 active for patient 7, 11 retired.
func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	concepts := stubConcepts{
		1: {},
		2: {},
		3: {Retired: lifecycle.On},
		4: {Voided: lifecycle.On},
	}
	encounters := stubEncounters{
		10: {ID: 10, EncounterDate: encounterDay, PatientID: 7},
		11: {ID: 11, EncounterDate: encounterDay, PatientID: 7, Status: lifecycle.Status{Retired: lifecycle.On}},
	}
	return NewService(repo, concepts, encounters), repo
}

func int64Ptr(v int64) *int64 { return &v }
