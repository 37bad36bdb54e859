package regimen

import (
	"context"
	"sort"

	"github.com/ehr/regimen/internal/domain/terminology"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/lifecycle/lifecycletest"
)

// memTable is an in-memory table shared by the catalog mocks.
type memTable[T any] struct {
	kind   string
	rows   map[int64]*T
	nextID int64
	id     func(*T) *int64
	status func(*T) *lifecycle.Status
}

func newMemTable[T any](kind string, id func(*T) *int64, status func(*T) *lifecycle.Status) *memTable[T] {
	return &memTable[T]{kind: kind, rows: make(map[int64]*T), id: id, status: status}
}

func (m *memTable[T]) Create(_ context.Context, v *T) error {
	m.nextID++
	*m.id(v) = m.nextID
	cp := *v
	m.rows[m.nextID] = &cp
	return nil
}

func (m *memTable[T]) GetByID(_ context.Context, id int64) (*T, error) {
	v, ok := m.rows[id]
	if !ok {
		return nil, lifecycle.NotFound(m.kind, id)
	}
	cp := *v
	return &cp, nil
}

func (m *memTable[T]) ListActive(_ context.Context) ([]*T, error) {
	var out []*T
	for _, v := range m.rows {
		if m.status(v).IsActive() {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *m.id(out[i]) < *m.id(out[j]) })
	return out, nil
}

func (m *memTable[T]) Void(_ context.Context, id int64, reason, _ string) error {
	v, ok := m.rows[id]
	if !ok {
		return lifecycle.NotFound(m.kind, id)
	}
	st := m.status(v)
	if err := lifecycletest.Voidable(m.kind, id, *st); err != nil {
		return err
	}
	st.Voided, st.VoidedReason = lifecycle.On, &reason
	return nil
}

func (m *memTable[T]) Retire(_ context.Context, id int64, reason, _ string) error {
	v, ok := m.rows[id]
	if !ok {
		return lifecycle.NotFound(m.kind, id)
	}
	st := m.status(v)
	if err := lifecycletest.Retirable(m.kind, id, *st); err != nil {
		return err
	}
	st.Retired, st.RetiredReason = lifecycle.On, &reason
	return nil
}

type mockRepos struct {
	conditions  *memTable[Condition]
	frequencies *memTable[Frequency]
	actions     *memTable[Action]
	regimens    *memTable[Regimen]
	categories  *memTable[Category]
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		conditions: newMemTable("condition",
			func(c *Condition) *int64 { return &c.ID }, func(c *Condition) *lifecycle.Status { return &c.Status }),
		frequencies: newMemTable("frequency",
			func(f *Frequency) *int64 { return &f.ID }, func(f *Frequency) *lifecycle.Status { return &f.Status }),
		actions: newMemTable("action",
			func(a *Action) *int64 { return &a.ID }, func(a *Action) *lifecycle.Status { return &a.Status }),
		regimens: newMemTable("regimen",
			func(r *Regimen) *int64 { return &r.ID }, func(r *Regimen) *lifecycle.Status { return &r.Status }),
		categories: newMemTable("regimen category",
			func(c *Category) *int64 { return &c.ID }, func(c *Category) *lifecycle.Status { return &c.Status }),
	}
}

func (m *mockRepos) repos() Repos {
	return Repos{
		Conditions:  m.conditions,
		Frequencies: m.frequencies,
		Actions:     m.actions,
		Regimens:    m.regimens,
		Categories:  m.categories,
	}
}

// stubConcepts: 1 Temperature, 2 Age, 3 Presenting condition, 4 Fever,
// 5 retired, 6 voided.
type stubConcepts map[int64]*terminology.Concept

func newStubConcepts() stubConcepts {
	return stubConcepts{
		1: {ID: 1, Name: "Temperature"},
		2: {ID: 2, Name: "Age"},
		3: {ID: 3, Name: "Presenting condition"},
		4: {ID: 4, Name: "Fever"},
		5: {ID: 5, Name: "Old", Status: lifecycle.Status{Retired: lifecycle.On}},
		6: {ID: 6, Name: "Gone", Status: lifecycle.Status{Voided: lifecycle.On}},
	}
}

func (s stubConcepts) GetActiveConcept(_ context.Context, id int64) (*terminology.Concept, error) {
	c, ok := s[id]
	if !ok {
		return nil, lifecycle.NotFound("concept", id)
	}
	if err := lifecycle.CheckActive("concept", id, c.Status); err != nil {
		return nil, err
	}
	return c, nil
}

func newTestService() (*Service, *mockRepos) {
	repos := newMockRepos()
	return NewService(repos.repos(), newStubConcepts()), repos
}

func int64Ptr(v int64) *int64 { return &v }
