package observation

import (
	"time"

	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// Observation is a timestamped fact recorded during an encounter.
// EncounterDate and PatientID are copied from the owning encounter when the
// observation is read.
type Observation struct {
	ID              int64      `db:"id" json:"id"`
	ObservationDate time.Time  `db:"observation_date" json:"observation_date" validate:"past"`
	ConceptID       int64      `db:"concept_id" json:"concept_id" validate:"gt=0"`
	ConceptValueID  *int64     `db:"concept_value_id" json:"concept_value_id,omitempty"`
	IntValue        int        `db:"int_value" json:"int_value"`
	StringValue     *string    `db:"string_value" json:"string_value,omitempty"`
	DateTimeValue   *time.Time `db:"date_time_value" json:"date_time_value,omitempty"`
	EncounterID     int64      `db:"encounter_id" json:"encounter_id" validate:"gt=0"`

	EncounterDate time.Time `db:"encounter_date" json:"encounter_date"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`

	lifecycle.Status
	lifecycle.Audit
}
