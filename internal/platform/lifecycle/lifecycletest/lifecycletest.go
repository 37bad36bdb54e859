// Package lifecycletest mirrors the void and retire guards that the SQL
// repositories enforce, for use by in-memory repositories in tests.
package lifecycletest

import "github.com/ehr/regimen/internal/platform/lifecycle"

// Voidable returns ErrNotFound when s is already voided.
func Voidable(kind string, id int64, s lifecycle.Status) error {
	if s.IsVoided() {
		return lifecycle.NotFound(kind, id)
	}
	return nil
}

// Retirable returns ErrNotFound when s is voided or already retired.
func Retirable(kind string, id int64, s lifecycle.Status) error {
	if s.IsVoided() || s.IsRetired() {
		return lifecycle.NotFound(kind, id)
	}
	return nil
}
