package terminology

import (
	"context"
	"fmt"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

// Service manages the concept registry and vocabulary sets.
type Service struct {
	concepts ConceptRepository
	sets     VocabularySetRepository
	cache    *conceptCache
}

// NewService creates the terminology service. cacheSize <= 0 disables the
// concept cache.
func NewService(concepts ConceptRepository, sets VocabularySetRepository, cacheSize int) (*Service, error) {
	cache, err := newConceptCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("concept cache: %w", err)
	}
	return &Service{concepts: concepts, sets: sets, cache: cache}, nil
}

// -- Concept --

func (s *Service) AddConcept(ctx context.Context, c *Concept) error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	c.ID = 0
	c.Status = lifecycle.Status{}
	c.CreatedBy = auth.ActorFromContext(ctx)

	if err := s.concepts.Create(ctx, c); err != nil {
		if db.IsUniqueViolation(err) {
			return validation.New("name", "is already used by another concept")
		}
		return err
	}
	return nil
}

func (s *Service) getConcept(ctx context.Context, id int64) (*Concept, error) {
	if c, ok := s.cache.get(id); ok {
		return c, nil
	}
	c, err := s.concepts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.put(c)
	return c, nil
}

// GetActiveConcept returns ErrNotFound for missing or voided concepts and
// ErrNotActive for retired ones.
func (s *Service) GetActiveConcept(ctx context.Context, id int64) (*Concept, error) {
	c, err := s.getConcept(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("concept", id, c.Status); err != nil {
		return nil, err
	}
	return c, nil
}

// GetActiveConceptByName looks the name up case-insensitively.
func (s *Service) GetActiveConceptByName(ctx context.Context, name string) (*Concept, error) {
	c, ok := s.cache.getByName(name)
	if !ok {
		var err error
		c, err = s.concepts.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		s.cache.put(c)
	}
	if err := lifecycle.CheckActive("concept", c.ID, c.Status); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListActiveConcepts(ctx context.Context, limit, offset int) ([]*Concept, int, error) {
	return s.concepts.ListActive(ctx, limit, offset)
}

// CountConcepts counts concepts in every lifecycle state.
func (s *Service) CountConcepts(ctx context.Context) (int, error) {
	return s.concepts.Count(ctx)
}

func (s *Service) DeleteConcept(ctx context.Context, id int64) error {
	defer s.cache.invalidate(id)
	return s.concepts.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireConcept(ctx context.Context, id int64) error {
	defer s.cache.invalidate(id)
	return s.concepts.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}

// PurgeCache drops every cached concept, for example after a bulk load.
func (s *Service) PurgeCache() {
	s.cache.purge()
}

// -- VocabularySet --

func (s *Service) AddVocabularySet(ctx context.Context, v *VocabularySet) error {
	if err := validation.Struct(v); err != nil {
		return err
	}
	if _, err := s.GetActiveConcept(ctx, v.ConceptFamilyID); err != nil {
		return fmt.Errorf("concept family: %w", err)
	}
	seen := make(map[int64]bool, len(v.MemberIDs))
	for _, mid := range v.MemberIDs {
		if seen[mid] {
			return validation.New("member_ids", fmt.Sprintf("contains concept %d twice", mid))
		}
		seen[mid] = true
		if _, err := s.GetActiveConcept(ctx, mid); err != nil {
			return fmt.Errorf("member: %w", err)
		}
	}

	v.ID = 0
	v.Status = lifecycle.Status{}
	v.CreatedBy = auth.ActorFromContext(ctx)
	return s.sets.Create(ctx, v)
}

func (s *Service) GetActiveVocabularySet(ctx context.Context, id int64) (*VocabularySet, error) {
	v, err := s.sets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckActive("vocabulary set", id, v.Status); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) ListActiveVocabularySets(ctx context.Context, limit, offset int) ([]*VocabularySet, int, error) {
	return s.sets.ListActive(ctx, limit, offset)
}

func (s *Service) DeleteVocabularySet(ctx context.Context, id int64) error {
	return s.sets.Void(ctx, id, lifecycle.VoidedReason, auth.ActorFromContext(ctx))
}

func (s *Service) RetireVocabularySet(ctx context.Context, id int64) error {
	return s.sets.Retire(ctx, id, lifecycle.RetiredReason, auth.ActorFromContext(ctx))
}
