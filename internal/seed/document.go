// Package seed loads the default rule base into an empty database.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ehr/regimen/internal/domain/regimen"
)

//go:embed default.yaml
var defaultDocument []byte

// Document is a rule base described by names. References between entries
// use concept names, condition and action descriptions, frequency
// descriptions and regimen names.
type Document struct {
	Concepts    []string        `yaml:"concepts"`
	Conditions  []ConditionSpec `yaml:"conditions"`
	Frequencies []FrequencySpec `yaml:"frequencies"`
	Actions     []ActionSpec    `yaml:"actions"`
	Regimens    []string        `yaml:"regimens"`
	Categories  []CategorySpec  `yaml:"categories"`
}

type ConditionSpec struct {
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Concept     string `yaml:"concept"`
	Value       string `yaml:"value,omitempty"`
	Relator     string `yaml:"relator,omitempty"`
	IntValue    int    `yaml:"int_value,omitempty"`
	EndValue    int    `yaml:"end_value,omitempty"`
}

type FrequencySpec struct {
	Description string `yaml:"description"`
	Concept     string `yaml:"concept,omitempty"`
	Type        string `yaml:"type"`
	Time        int    `yaml:"time"`
	Unit        string `yaml:"unit"`
}

type ActionSpec struct {
	Description string `yaml:"description"`
	Concept     string `yaml:"concept,omitempty"`
	Value       string `yaml:"value,omitempty"`
	Frequency   string `yaml:"frequency,omitempty"`
	StartDosage int    `yaml:"start_dosage,omitempty"`
	EndDosage   int    `yaml:"end_dosage,omitempty"`
	Unit        string `yaml:"unit,omitempty"`
}

type CategorySpec struct {
	Name       string   `yaml:"name"`
	Regimen    string   `yaml:"regimen"`
	Conditions []string `yaml:"conditions"`
	Actions    []string `yaml:"actions"`
}

var conditionTypes = map[string]regimen.ConditionType{
	"concept":  regimen.ConceptCondition,
	"integer":  regimen.IntegerCondition,
	"string":   regimen.StringCondition,
	"datetime": regimen.DateTimeCondition,
}

var relators = map[string]regimen.Relator{
	"":                 regimen.Equals,
	"equals":           regimen.Equals,
	"greater_or_equal": regimen.GreaterOrEqual,
	"less":             regimen.Less,
	"not_equal":        regimen.NotEqual,
}

// Parse decodes a YAML document and checks its enum values.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}
	for _, c := range doc.Conditions {
		if _, ok := conditionTypes[key(c.Type)]; !ok {
			return nil, fmt.Errorf("condition %q: unknown type %q", c.Description, c.Type)
		}
		if _, ok := relators[key(c.Relator)]; !ok {
			return nil, fmt.Errorf("condition %q: unknown relator %q", c.Description, c.Relator)
		}
	}
	return &doc, nil
}

// Default returns the embedded default rule base.
func Default() (*Document, error) {
	return Parse(defaultDocument)
}
