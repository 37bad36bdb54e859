package episode

import (
	"time"

	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// Episode is a span of care opened during an encounter, optionally coded by
// a concept.
type Episode struct {
	ID          int64      `db:"id" json:"id"`
	StartDate   time.Time  `db:"start_date" json:"start_date" validate:"past"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	State       int16      `db:"state" json:"state" validate:"gte=0"`
	ConceptID   *int64     `db:"concept_id" json:"concept_id,omitempty" validate:"omitempty,gt=0"`
	EncounterID int64      `db:"encounter_id" json:"encounter_id"`
	lifecycle.Status
	lifecycle.Audit
}

// IsOpen reports whether the episode has no end date.
func (e *Episode) IsOpen() bool {
	return e.EndDate == nil
}
