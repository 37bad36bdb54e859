package regimen

import "testing"

func TestConditionTypeEnum(t *testing.T) {
	tests := []struct {
		typ   ConditionType
		name  string
		valid bool
	}{
		{ConceptCondition, "CONCEPT_CONDITION", true},
		{IntegerCondition, "INTEGER_CONDITION", true},
		{StringCondition, "STRING_CONDITION", true},
		{DateTimeCondition, "DATETIME_CONDITION", true},
		{ConditionType(4), "UNKNOWN", false},
		{ConditionType(-1), "UNKNOWN", false},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.name {
			t.Errorf("%d: expected %s, got %s", tt.typ, tt.name, got)
		}
		if tt.typ.Valid() != tt.valid {
			t.Errorf("%d: expected valid=%v", tt.typ, tt.valid)
		}
	}
}

func TestRelatorEnum(t *testing.T) {
	tests := []struct {
		rel   Relator
		name  string
		valid bool
	}{
		{Equals, "EQUALS", true},
		{GreaterOrEqual, "GREATER_OR_EQUAL", true},
		{Less, "LESS", true},
		{NotEqual, "NOT_EQUAL", true},
		{Relator(9), "UNKNOWN", false},
	}
	for _, tt := range tests {
		if got := tt.rel.String(); got != tt.name {
			t.Errorf("%d: expected %s, got %s", tt.rel, tt.name, got)
		}
		if tt.rel.Valid() != tt.valid {
			t.Errorf("%d: expected valid=%v", tt.rel, tt.valid)
		}
	}
}
