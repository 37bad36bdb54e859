package recommendation

import "github.com/ehr/regimen/internal/domain/regimen"

// ActionSummary is the display form of a recommended action.
type ActionSummary struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	StartDosage int     `json:"start_dosage,omitempty"`
	EndDosage   int     `json:"end_dosage,omitempty"`
	Unit        *string `json:"unit,omitempty"`
}

// Summary is the response shape of a recommended regimen category.
type Summary struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	RegimenID    int64           `json:"regimen_id"`
	RegimenName  string          `json:"regimen_name"`
	ConditionIDs []int64         `json:"condition_ids"`
	ActionIDs    []int64         `json:"action_ids"`
	Actions      []ActionSummary `json:"actions"`
}

func Summarize(cats []*regimen.Category) []Summary {
	out := make([]Summary, 0, len(cats))
	for _, c := range cats {
		s := Summary{
			ID:           c.ID,
			Name:         c.Name,
			RegimenID:    c.RegimenID,
			RegimenName:  c.RegimenName,
			ConditionIDs: make([]int64, 0, len(c.Conditions)),
			ActionIDs:    make([]int64, 0, len(c.Actions)),
			Actions:      make([]ActionSummary, 0, len(c.Actions)),
		}
		for _, cond := range c.Conditions {
			s.ConditionIDs = append(s.ConditionIDs, cond.ID)
		}
		for _, a := range c.Actions {
			s.ActionIDs = append(s.ActionIDs, a.ID)
			s.Actions = append(s.Actions, ActionSummary{
				ID:          a.ID,
				Description: a.Description,
				StartDosage: a.StartDosage,
				EndDosage:   a.EndDosage,
				Unit:        a.Unit,
			})
		}
		out = append(out, s)
	}
	return out
}
