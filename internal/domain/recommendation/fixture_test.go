package recommendation

import (
	"context"
	"time"

	"github.com/ehr/regimen/internal/domain/identity"
	"github.com/ehr/regimen/internal/domain/observation"
	"github.com/ehr/regimen/internal/domain/regimen"
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// Concept ids used by the fixture catalog.
const (
	conceptPresenting   int64 = 1
	conceptFever        int64 = 2
	conceptAge          int64 = 3
	conceptMalnourished int64 = 4
	conceptDehydrated   int64 = 5
	conceptTemperature  int64 = 6
)

var conceptNames = map[int64]string{
	conceptPresenting:   "Presenting condition",
	conceptFever:        "Fever",
	conceptAge:          "Age",
	conceptMalnourished: "Severe malnourishment",
	conceptDehydrated:   "Chronic dehydration",
	conceptTemperature:  "Temperature",
}

var (
	evalNow  = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	visitDay = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
)

func int64Ptr(v int64) *int64 { return &v }

func intCond(id, concept int64, rel regimen.Relator, value int) regimen.Condition {
	return regimen.Condition{
		ID:            id,
		ConditionType: regimen.IntegerCondition,
		Relator:       rel,
		ConceptID:     concept,
		ConceptName:   conceptNames[concept],
		IntValue:      value,
	}
}

func conceptCond(id, concept, value int64) regimen.Condition {
	return regimen.Condition{
		ID:             id,
		ConditionType:  regimen.ConceptCondition,
		ConceptID:      concept,
		ConceptName:    conceptNames[concept],
		ConceptValueID: int64Ptr(value),
	}
}

// seededConditions mirrors the default metadata rule base.
func seededConditions() map[int64]regimen.Condition {
	return map[int64]regimen.Condition{
		1:  conceptCond(1, conceptPresenting, conceptDehydrated),
		2:  conceptCond(2, conceptPresenting, conceptMalnourished),
		3:  intCond(3, conceptTemperature, regimen.GreaterOrEqual, 38),
		4:  intCond(4, conceptTemperature, regimen.Less, 40),
		5:  intCond(5, conceptTemperature, regimen.GreaterOrEqual, 40),
		6:  intCond(6, conceptAge, regimen.GreaterOrEqual, 10),
		7:  intCond(7, conceptAge, regimen.Less, 11),
		8:  intCond(8, conceptAge, regimen.GreaterOrEqual, 11),
		9:  intCond(9, conceptAge, regimen.Less, 16),
		10: intCond(10, conceptAge, regimen.GreaterOrEqual, 16),
	}
}

func category(id int64, name string, condIDs ...int64) *regimen.Category {
	conds := seededConditions()
	cat := &regimen.Category{ID: id, Name: name, RegimenID: 1, RegimenName: "Treatment of fever"}
	for _, cid := range condIDs {
		cat.Conditions = append(cat.Conditions, conds[cid])
	}
	cat.Actions = []regimen.Action{{ID: id, Description: "action for " + name}}
	return cat
}

func seededCategories() []*regimen.Category {
	return []*regimen.Category{
		category(1, "Fever in children from 10 to 11 years", 3, 4, 6, 7),
		category(2, "Fever in children from 11 to 16 years", 3, 4, 8, 9),
		category(3, "Fever in adults (16+ years)", 3, 4, 10),
		category(4, "Fever in those presenting with severe malnourishment", 3, 4, 2),
		category(5, "Fever in those presenting with chronic dehydration", 3, 4, 1),
		category(6, "Fever in those with very high temperature", 5),
	}
}

type fakePatients map[int64]*identity.Patient

func (f fakePatients) GetActivePatient(_ context.Context, id int64) (*identity.Patient, error) {
	p, ok := f[id]
	if !ok {
		return nil, lifecycle.NotFound("patient", id)
	}
	if err := lifecycle.CheckActive("patient", id, p.Status); err != nil {
		return nil, err
	}
	return p, nil
}

type fakeCategories struct {
	cats  []*regimen.Category
	err   error
	calls int
}

func (f *fakeCategories) ListActiveCategories(context.Context) ([]*regimen.Category, error) {
	f.calls++
	return f.cats, f.err
}

type fakeObservations struct {
	obs []*observation.Observation
	err error
}

func (f *fakeObservations) ListActiveObservations(context.Context) ([]*observation.Observation, error) {
	return f.obs, f.err
}

// patient 1 turns 10 on evalNow; patient 2 is retired.
func fixturePatients() fakePatients {
	return fakePatients{
		1: {ID: 1, FirstName: "Tariq", DateOfBirth: time.Date(2014, 6, 15, 0, 0, 0, 0, time.UTC)},
		2: {ID: 2, FirstName: "Retired", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			Status: lifecycle.Status{Retired: lifecycle.On}},
	}
}

type fixture struct {
	patients     fakePatients
	categories   *fakeCategories
	observations *fakeObservations
	nextObsID    int64
}

func newFixture() *fixture {
	return &fixture{
		patients:     fixturePatients(),
		categories:   &fakeCategories{cats: seededCategories()},
		observations: &fakeObservations{},
	}
}

// observe records an observation for patient on visitDay at minute past the
// encounter start.
func (f *fixture) observe(patientID, concept int64, minute int, intValue int, value *int64) *observation.Observation {
	f.nextObsID++
	o := &observation.Observation{
		ID:              f.nextObsID,
		ObservationDate: visitDay.Add(time.Duration(minute) * time.Minute),
		ConceptID:       concept,
		ConceptValueID:  value,
		IntValue:        intValue,
		EncounterID:     100 + patientID,
		EncounterDate:   visitDay,
		PatientID:       patientID,
	}
	f.observations.obs = append(f.observations.obs, o)
	return o
}

func (f *fixture) engine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return evalNow })}, opts...)
	return NewEngine(f.patients, f.categories, f.observations, opts...)
}

func ids(cats []*regimen.Category) []int64 {
	out := make([]int64, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.ID)
	}
	return out
}
