// Package lifecycle implements the soft-delete model shared by every
// persisted entity: voided entities behave as if they were never stored,
// retired entities are kept for history but excluded from active use.
package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the entity does not exist or has been voided.
	ErrNotFound = errors.New("entry not found")
	// ErrNotActive means the entity exists but has been retired.
	ErrNotActive = errors.New("entry not active")
)

// Reasons recorded by the void and retire operations.
const (
	VoidedReason  = "System operation - voided"
	RetiredReason = "System operation - retired"
)

// Flag is a persisted 0/1 marker.
type Flag int16

const (
	Off Flag = 0
	On  Flag = 1
)

// Valid reports whether f is one of the two storable values.
func (f Flag) Valid() bool {
	return f == Off || f == On
}

// Status is the lifecycle block embedded in every model.
type Status struct {
	Voided        Flag    `db:"voided" json:"voided"`
	VoidedReason  *string `db:"voided_reason" json:"voided_reason,omitempty"`
	Retired       Flag    `db:"retired" json:"retired"`
	RetiredReason *string `db:"retired_reason" json:"retired_reason,omitempty"`
}

func (s Status) IsVoided() bool  { return s.Voided == On }
func (s Status) IsRetired() bool { return s.Retired == On }

// IsActive reports whether the entity is neither voided nor retired.
func (s Status) IsActive() bool {
	return !s.IsVoided() && !s.IsRetired()
}

// Audit carries creation and modification stamps.
type Audit struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	CreatedBy string    `db:"created_by" json:"created_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy string    `db:"updated_by" json:"updated_by,omitempty"`
}

// CheckActive classifies a fetched entity for an active lookup.
func CheckActive(kind string, id int64, s Status) error {
	switch {
	case s.IsVoided():
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	case s.IsRetired():
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotActive)
	}
	return nil
}

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
