package encounter

import (
	"time"

	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// Type classifies how an encounter came about.
type Type int16

const (
	SelfReported Type = iota
	ScheduledVisit
	UnscheduledVisit
)

func (t Type) Valid() bool {
	switch t {
	case SelfReported, ScheduledVisit, UnscheduledVisit:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t {
	case SelfReported:
		return "SELF_REPORTED"
	case ScheduledVisit:
		return "SCHEDULED_VISIT"
	case UnscheduledVisit:
		return "UNSCHEDULED_VISIT"
	}
	return "UNKNOWN"
}

type Encounter struct {
	ID            int64     `db:"id" json:"id"`
	EncounterType Type      `db:"encounter_type" json:"encounter_type" validate:"gte=0,lte=2"`
	EncounterDate time.Time `db:"encounter_date" json:"encounter_date" validate:"past"`
	PatientID     int64     `db:"patient_id" json:"patient_id" validate:"gt=0"`
	lifecycle.Status
	lifecycle.Audit
}
