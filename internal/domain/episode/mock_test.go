package episode

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
	store  map[int64]*Episode
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]*Episode)}
}

func (m *mockRepo) Create(_ context.Context, ep *Episode) error {
	m.nextID++
	ep.ID = m.nextID
	ep.CreatedAt = time.Now()
	cp := *ep
	m.store[ep.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Episode, error) {
	ep, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("episode", id)
	}
	cp := *ep
	return &cp, nil
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*Episode, int, error) {
	out := m.active(func(*Episode) bool { return true })
	return out, len(out), nil
}

func (m *mockRepo) ListActiveByEncounter(_ context.Context, encounterID int64) ([]*Episode, error) {
	return m.active(func(ep *Episode) bool { return ep.EncounterID == encounterID }), nil
}

func (m *mockRepo) active(keep func(*Episode) bool) []*Episode {
	var out []*Episode
	for _, ep := range m.store {
		if ep.IsActive() && keep(ep) {
			out = append(out, ep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockRepo) Void(_ context.Context, id int64, reason, by string) error {
	ep, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("episode", id)
	}
	if err := lifecycletest.Voidable("episode", id, ep.Status); err != nil {
		return err
	}
	ep.Voided, ep.VoidedReason, ep.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func (m *mockRepo) Retire(_ context.Context, id int64, reason, by string) error {
	ep, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("episode", id)
	}
	if err := lifecycletest.Retirable("episode", id, ep.Status); err != nil {
		return err
	}
	ep.Retired, ep.RetiredReason, ep.UpdatedBy = lifecycle.On, &reason, by
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

type stubEncounters map[int64]lifecycle.Status

func (s stubEncounters) GetActiveEncounter(_ context.Context, id int64) (*encounter.Encounter, error) {
	st, ok := s[id]
	if !ok {
		return nil, lifecycle.NotFound("encounter", id)
	}
	if err := lifecycle.CheckActive("encounter", id, st); err != nil {
		return nil, err
	}
	return &encounter.Encounter{ID: id, Status: st}, nil
}

// Concepts: 1 active, 2 retired. Encounters: 10 active, 11 retired, 12 voided.
func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	concepts := stubConcepts{1: {}, 2: {Retired: lifecycle.On}}
	encounters := stubEncounters{
		10: {},
		11: {Retired: lifecycle.On},
		12: {Voided: lifecycle.On},
	}
	return NewService(repo, concepts, encounters), repo
}

func yesterday() time.Time {
	return time.Now().Add(-24 * time.Hour).Truncate(time.Second)
}

func int64Ptr(v int64) *int64 { return &v }
