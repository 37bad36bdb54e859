package db

import (
	"context"
	"fmt"

	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// VoidRow marks a row of table voided. Only rows not yet voided are
// touched, so a repeated or concurrent call reports lifecycle.ErrNotFound
// instead of overwriting the recorded reason.
func VoidRow(ctx context.Context, q Querier, table string, id int64, reason, by string) error {
	tag, err := q.Exec(ctx, `
		UPDATE `+table+` SET voided = 1, voided_reason = $2, updated_at = NOW(), updated_by = $3
		WHERE id = $1 AND voided = 0`, id, reason, by)
	if err != nil {
		return fmt.Errorf("void %s %d: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.NotFound(table, id)
	}
	return nil
}

// RetireRow marks an active row of table retired; voided or already retired
// rows report lifecycle.ErrNotFound.
func RetireRow(ctx context.Context, q Querier, table string, id int64, reason, by string) error {
	tag, err := q.Exec(ctx, `
		UPDATE `+table+` SET retired = 1, retired_reason = $2, updated_at = NOW(), updated_by = $3
		WHERE id = $1 AND voided = 0 AND retired = 0`, id, reason, by)
	if err != nil {
		return fmt.Errorf("retire %s %d: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.NotFound(table, id)
	}
	return nil
}
