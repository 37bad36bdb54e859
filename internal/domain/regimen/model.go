package regimen

import (
	"time"

	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// ConditionType selects how a condition is evaluated.
type ConditionType int16

const (
	ConceptCondition ConditionType = iota
	IntegerCondition
	StringCondition
	DateTimeCondition
)

func (t ConditionType) Valid() bool {
	switch t {
	case ConceptCondition, IntegerCondition, StringCondition, DateTimeCondition:
		return true
	}
	return false
}

func (t ConditionType) String() string {
	switch t {
	case ConceptCondition:
		return "CONCEPT_CONDITION"
	case IntegerCondition:
		return "INTEGER_CONDITION"
	case StringCondition:
		return "STRING_CONDITION"
	case DateTimeCondition:
		return "DATETIME_CONDITION"
	}
	return "UNKNOWN"
}

// Relator is the comparison operator of a condition: actual <relator> expected.
type Relator int16

const (
	Equals Relator = iota
	GreaterOrEqual
	Less
	NotEqual
)

func (r Relator) Valid() bool {
	switch r {
	case Equals, GreaterOrEqual, Less, NotEqual:
		return true
	}
	return false
}

func (r Relator) String() string {
	switch r {
	case Equals:
		return "EQUALS"
	case GreaterOrEqual:
		return "GREATER_OR_EQUAL"
	case Less:
		return "LESS"
	case NotEqual:
		return "NOT_EQUAL"
	}
	return "UNKNOWN"
}

// Frequency and dosage codes.
const (
	FrequencyEvery = "q"
	FrequencyOther = "o"

	UnitHours = "h"
	UnitDays  = "d"

	DosageMilligrams = "mg"
	DosageGrams      = "g"
	DosageTablets    = "tablets"
)

// Condition is a single predicate over the patient's age or an observation.
// ConceptName and ConceptValueName are read from the concept registry.
type Condition struct {
	ID               int64         `db:"id" json:"id"`
	Description      string        `db:"description" json:"description" validate:"notblank"`
	ConditionType    ConditionType `db:"condition_type" json:"condition_type" validate:"gte=0,lte=3"`
	Relator          Relator       `db:"relator" json:"relator" validate:"gte=0,lte=3"`
	ConceptID        int64         `db:"concept_id" json:"concept_id" validate:"gt=0"`
	ConceptName      string        `db:"concept_name" json:"concept_name"`
	ConceptValueID   *int64        `db:"concept_value_id" json:"concept_value_id,omitempty"`
	ConceptValueName *string       `db:"concept_value_name" json:"concept_value_name,omitempty"`
	IntValue         int           `db:"int_value" json:"int_value"`
	EndValue         int           `db:"end_value" json:"end_value"`
	StringValue      *string       `db:"string_value" json:"string_value,omitempty"`
	DateTimeValue    *time.Time    `db:"date_time_value" json:"date_time_value,omitempty"`
	lifecycle.Status
	lifecycle.Audit
}

type Frequency struct {
	ID            int64  `db:"id" json:"id"`
	Description   string `db:"description" json:"description" validate:"notblank"`
	ConceptID     *int64 `db:"concept_id" json:"concept_id,omitempty"`
	FrequencyType string `db:"frequency_type" json:"frequency_type" validate:"oneof=q o"`
	Time          int    `db:"time" json:"time" validate:"gte=0"`
	Unit          string `db:"unit" json:"unit" validate:"oneof=h d"`
	lifecycle.Status
	lifecycle.Audit
}

// Action is a recommended step, returned with a matching category.
type Action struct {
	ID             int64   `db:"id" json:"id"`
	Description    string  `db:"description" json:"description" validate:"notblank"`
	ConceptID      *int64  `db:"concept_id" json:"concept_id,omitempty"`
	ConceptValueID *int64  `db:"concept_value_id" json:"concept_value_id,omitempty"`
	FrequencyID    *int64  `db:"frequency_id" json:"frequency_id,omitempty"`
	StartDosage    int     `db:"start_dosage" json:"start_dosage" validate:"gte=0"`
	EndDosage      int     `db:"end_dosage" json:"end_dosage" validate:"gte=0"`
	Unit           *string `db:"unit" json:"unit,omitempty" validate:"omitempty,oneof=mg g tablets"`
	lifecycle.Status
	lifecycle.Audit
}

type Regimen struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"notblank,max=255"`
	lifecycle.Status
	lifecycle.Audit
}

// Category bundles AND-combined conditions with the actions recommended when
// all of them hold. ConditionIDs and ActionIDs name the members on create;
// reads fill both the ids and the resolved members, ordered by id.
type Category struct {
	ID           int64       `db:"id" json:"id"`
	Name         string      `db:"name" json:"name" validate:"notblank,max=255"`
	RegimenID    int64       `db:"regimen_id" json:"regimen_id" validate:"gt=0"`
	RegimenName  string      `db:"regimen_name" json:"regimen_name"`
	ConditionIDs []int64     `json:"condition_ids" validate:"dive,gt=0"`
	ActionIDs    []int64     `json:"action_ids" validate:"dive,gt=0"`
	Conditions   []Condition `json:"conditions,omitempty"`
	Actions      []Action    `json:"actions,omitempty"`
	lifecycle.Status
	lifecycle.Audit
}
