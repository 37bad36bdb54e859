package terminology

import "context"

// ConceptRepository stores concepts. GetByID and GetByName return rows in
// any lifecycle state; callers decide what is usable.
type ConceptRepository interface {
	Create(ctx context.Context, c *Concept) error
	GetByID(ctx context.Context, id int64) (*Concept, error)
	GetByName(ctx context.Context, name string) (*Concept, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Concept, int, error)
	Count(ctx context.Context) (int, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}

type VocabularySetRepository interface {
	Create(ctx context.Context, v *VocabularySet) error
	GetByID(ctx context.Context, id int64) (*VocabularySet, error)
	ListActive(ctx context.Context, limit, offset int) ([]*VocabularySet, int, error)
	Void(ctx context.Context, id int64, reason, by string) error
	Retire(ctx context.Context, id int64, reason, by string) error
}
