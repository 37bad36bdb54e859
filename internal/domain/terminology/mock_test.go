package terminology

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/lifecycle/lifecycletest"
)

type mockConceptRepo struct {
	store  map[int64]*Concept
	nextID int64
	reads  int
}

func newMockConceptRepo() *mockConceptRepo {
	return &mockConceptRepo{store: make(map[int64]*Concept)}
}

func (m *mockConceptRepo) Create(_ context.Context, c *Concept) error {
	for _, existing := range m.store {
		if !existing.IsVoided() && strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("insert concept: %w", &pgconn.PgError{Code: "23505"})
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *mockConceptRepo) GetByID(_ context.Context, id int64) (*Concept, error) {
	m.reads++
	c, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("concept", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockConceptRepo) GetByName(_ context.Context, name string) (*Concept, error) {
	m.reads++
	var best *Concept
	for _, c := range m.store {
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		if best == nil || (best.IsVoided() && !c.IsVoided()) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("concept %q: %w", name, lifecycle.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

func (m *mockConceptRepo) ListActive(_ context.Context, limit, offset int) ([]*Concept, int, error) {
	var out []*Concept
	for _, c := range m.store {
		if c.IsActive() {
			out = append(out, c)
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

func (m *mockConceptRepo) Count(_ context.Context) (int, error) {
	return len(m.store), nil
}

func (m *mockConceptRepo) Void(_ context.Context, id int64, reason, by string) error {
	c, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("concept", id)
	}
	if err := lifecycletest.Voidable("concept", id, c.Status); err != nil {
		return err
	}
	c.Voided, c.VoidedReason, c.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

func (m *mockConceptRepo) Retire(_ context.Context, id int64, reason, by string) error {
	c, ok := m.store[id]
	if !ok {
		return lifecycle.NotFound("concept", id)
	}
	if err := lifecycletest.Retirable("concept", id, c.Status); err != nil {
		return err
	}
	c.Retired, c.RetiredReason, c.UpdatedBy = lifecycle.On, &reason, by
	return nil
}

type mockVocabularySetRepo struct {
	store  map[int64]*VocabularySet
	nextID int64
}

func newMockVocabularySetRepo() *mockVocabularySetRepo {
	return &mockVocabularySetRepo{store: make(map[int64]*VocabularySet)}
}

func (m *mockVocabularySetRepo) Create(_ context.Context, v *VocabularySet) error {
	m.nextID++
	v.ID = m.nextID
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

func (m *mockVocabularySetRepo) GetByID(_ context.Context, id int64) (*VocabularySet, error) {
	v, ok := m.store[id]
	if !ok {
		return nil, lifecycle.NotFound("vocabulary set", id)
	}
	cp := *v
	return &cp, nil
}

func (m *mockVocabularySetRepo) ListActive(_ context.Context, limit, offset int) ([]*VocabularySet, int, error) {
	var out []*VocabularySet
	for _, v := range m.store {
		if v.IsActive() {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockVocabularySetRepo) Void(_ context.Context, id int64, reason, by string) error {
	v, ok := m.store[id]
	if !ok || v.IsVoided() {
		return lifecycle.NotFound("vocabulary set", id)
	}
	v.Voided, v.VoidedReason = lifecycle.On, &reason
	return nil
}

func (m *mockVocabularySetRepo) Retire(_ context.Context, id int64, reason, by string) error {
	v, ok := m.store[id]
	if !ok || v.IsVoided() || v.IsRetired() {
		return lifecycle.NotFound("vocabulary set", id)
	}
	v.Retired, v.RetiredReason = lifecycle.On, &reason
	return nil
}

func newTestService(cacheSize int) (*Service, *mockConceptRepo) {
	concepts := newMockConceptRepo()
	svc, err := NewService(concepts, newMockVocabularySetRepo(), cacheSize)
	if err != nil {
		panic(err)
	}
	return svc, concepts
}
