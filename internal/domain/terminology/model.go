package terminology

import (
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// Concept is an entry of the controlled vocabulary. Condition, observation
// and action definitions all point at concepts.
type Concept struct {
	ID     int64   `db:"id" json:"id"`
	Name   string  `db:"name" json:"name" validate:"notblank,max=255"`
	Source *string `db:"source" json:"source,omitempty" validate:"omitempty,max=255"`
	CUI    *string `db:"cui" json:"cui,omitempty" validate:"omitempty,max=64"`
	lifecycle.Status
	lifecycle.Audit
}

// VocabularySet groups member concepts under a family concept, for example
// every answer allowed for "Presenting condition".
type VocabularySet struct {
	ID              int64   `db:"id" json:"id"`
	Name            string  `db:"name" json:"name" validate:"notblank,max=255"`
	ConceptFamilyID int64   `db:"concept_family_id" json:"concept_family_id" validate:"gt=0"`
	MemberIDs       []int64 `json:"member_ids"`
	lifecycle.Status
	lifecycle.Audit
}
