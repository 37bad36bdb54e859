package lifecycle

import "strings"

var columnNames = []string{
	"voided", "voided_reason", "retired", "retired_reason",
	"created_at", "created_by", "updated_at", "updated_by",
}

// Columns is the lifecycle and audit column list in scan order.
var Columns = strings.Join(columnNames, ", ")

// ColumnsOf qualifies Columns with a table alias for joined queries.
func ColumnsOf(alias string) string {
	out := make([]string, len(columnNames))
	for i, c := range columnNames {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// ActiveClause filters rows to active entities. alias may be empty.
func ActiveClause(alias string) string {
	if alias != "" {
		alias += "."
	}
	return alias + "voided = 0 AND " + alias + "retired = 0"
}

// Targets returns scan destinations matching Columns.
func Targets(s *Status, a *Audit) []any {
	return []any{
		&s.Voided, &s.VoidedReason, &s.Retired, &s.RetiredReason,
		&a.CreatedAt, &a.CreatedBy, &a.UpdatedAt, &a.UpdatedBy,
	}
}
