package identity

import (
	"time"

	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/pkg/clinicaldate"
)

// Patient is a person recommendations are computed for.
type Patient struct {
	ID                       int64     `db:"id" json:"id"`
	Title                    *string   `db:"title" json:"title,omitempty"`
	FirstName                string    `db:"first_name" json:"first_name" validate:"notblank,max=100"`
	MiddleName               *string   `db:"middle_name" json:"middle_name,omitempty"`
	LastName                 string    `db:"last_name" json:"last_name" validate:"notblank,max=100"`
	Gender                   string    `db:"gender" json:"gender" validate:"required,oneof=M F"`
	DateOfBirth              time.Time `db:"date_of_birth" json:"date_of_birth" validate:"past"`
	Email                    string    `db:"email" json:"email" validate:"required,email,max=255"`
	PreferredContactNumber   *string   `db:"preferred_contact_number" json:"preferred_contact_number,omitempty"`
	AlternativeContactNumber *string   `db:"alternative_contact_number" json:"alternative_contact_number,omitempty"`
	AddressLine1             string    `db:"address_line1" json:"address_line1" validate:"notblank"`
	AddressLine2             *string   `db:"address_line2" json:"address_line2,omitempty"`
	AddressLine3             *string   `db:"address_line3" json:"address_line3,omitempty"`
	Postcode                 *string   `db:"postcode" json:"postcode,omitempty"`
	Country                  string    `db:"country" json:"country" validate:"notblank"`
	lifecycle.Status
	lifecycle.Audit
}

// AgeAt returns the patient's age in whole years on the calendar date of at.
func (p *Patient) AgeAt(at time.Time) int {
	return clinicaldate.WholeYears(p.DateOfBirth, at)
}
