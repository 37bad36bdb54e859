package episode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/lifecycle"
	"github.com/ehr/regimen/internal/platform/validation"
)

func TestAddEpisode(t *testing.T) {
	svc, repo := newTestService()
	ctx := auth.WithIdentity(context.Background(), "nurse-1", nil)
	ep := &Episode{StartDate: yesterday(), ConceptID: int64Ptr(1), EncounterID: 10}

	if err := svc.AddEpisode(ctx, ep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := repo.store[ep.ID]
	if stored == nil || stored.EncounterID != 10 || stored.CreatedBy != "nurse-1" {
		t.Errorf("episode not stored: %+v", stored)
	}
	if !stored.IsOpen() {
		t.Error("expected an open episode")
	}
}

func TestAddEpisode_ResetsClientFields(t *testing.T) {
	svc, repo := newTestService()
	ep := &Episode{ID: 99, StartDate: yesterday(), EncounterID: 10,
		Status: lifecycle.Status{Voided: lifecycle.On}}

	if err := svc.AddEpisode(context.Background(), ep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.ID != 1 || !repo.store[1].IsActive() {
		t.Errorf("expected a fresh active episode, got %+v", repo.store[1])
	}
}

func TestAddEpisode_Validation(t *testing.T) {
	end := yesterday().Add(-time.Hour)
	tests := []struct {
		name string
		ep   Episode
	}{
		{"missing start", Episode{EncounterID: 10}},
		{"future start", Episode{StartDate: time.Now().Add(time.Hour), EncounterID: 10}},
		{"end before start", Episode{StartDate: yesterday(), EndDate: &end, EncounterID: 10}},
		{"negative state", Episode{StartDate: yesterday(), State: -1, EncounterID: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			ep := tt.ep
			if err := svc.AddEpisode(context.Background(), &ep); !errors.Is(err, validation.ErrInvalid) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(repo.store) != 0 {
				t.Error("episode must not be stored")
			}
		})
	}
}

func TestAddEpisode_References(t *testing.T) {
	tests := []struct {
		name        string
		encounterID int64
		conceptID   *int64
		want        error
	}{
		{"no encounter", 0, nil, lifecycle.ErrNotFound},
		{"unknown encounter", 99, nil, lifecycle.ErrNotFound},
		{"retired encounter", 11, nil, lifecycle.ErrNotActive},
		{"voided encounter", 12, nil, lifecycle.ErrNotFound},
		{"retired concept", 10, int64Ptr(2), lifecycle.ErrNotActive},
		{"unknown concept", 10, int64Ptr(7), lifecycle.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			err := svc.AddEpisode(context.Background(),
				&Episode{StartDate: yesterday(), EncounterID: tt.encounterID, ConceptID: tt.conceptID})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if len(repo.store) != 0 {
				t.Error("episode must not be stored")
			}
		})
	}
}

func TestGetActiveEpisode(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := svc.AddEpisode(ctx, &Episode{StartDate: yesterday(), EncounterID: 10}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	repo.store[2].Retired = lifecycle.On
	repo.store[3].Voided = lifecycle.On

	if _, err := svc.GetActiveEpisode(ctx, 1); err != nil {
		t.Errorf("expected active episode, got %v", err)
	}
	if _, err := svc.GetActiveEpisode(ctx, 2); !errors.Is(err, lifecycle.ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
	if _, err := svc.GetActiveEpisode(ctx, 3); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetActiveEpisode(ctx, 4); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListEncounterEpisodes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.store[1] = &Episode{ID: 1, EncounterID: 10}
	repo.store[2] = &Episode{ID: 2, EncounterID: 10, Status: lifecycle.Status{Retired: lifecycle.On}}
	repo.store[3] = &Episode{ID: 3, EncounterID: 20}
	repo.store[4] = &Episode{ID: 4, EncounterID: 10}

	eps, err := svc.ListEncounterEpisodes(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 2 || eps[0].ID != 1 || eps[1].ID != 4 {
		t.Errorf("expected episodes 1 and 4, got %+v", eps)
	}

	all, total, err := svc.ListActiveEpisodes(ctx, 0, 0)
	if err != nil || total != 3 || len(all) != 3 {
		t.Errorf("expected 3 active episodes, got %d (%v)", total, err)
	}
}

func TestDeleteAndRetireEpisode(t *testing.T) {
	svc, repo := newTestService()
	ctx := auth.WithIdentity(context.Background(), "nurse-1", nil)
	_ = svc.AddEpisode(ctx, &Episode{StartDate: yesterday(), EncounterID: 10})
	_ = svc.AddEpisode(ctx, &Episode{StartDate: yesterday(), EncounterID: 10})

	if err := svc.RetireEpisode(ctx, 1); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := svc.RetireEpisode(ctx, 1); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second retire, got %v", err)
	}
	if got := *repo.store[1].RetiredReason; got != lifecycle.RetiredReason {
		t.Errorf("unexpected reason %q", got)
	}

	if err := svc.DeleteEpisode(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteEpisode(ctx, 2); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if repo.store[2].UpdatedBy != "nurse-1" {
		t.Errorf("expected updated_by nurse-1, got %q", repo.store[2].UpdatedBy)
	}
}
